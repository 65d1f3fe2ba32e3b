package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/curaious/folio/internal/api"
	"github.com/curaious/folio/internal/config"
	"github.com/curaious/folio/internal/telemetry"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the catalog and admin API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := config.ReadConfig()

		shutdownTelemetry := telemetry.NewProvider(conf.OTEL_EXPORTER_OTLP_ENDPOINT, conf.OTEL_SERVICE_NAME)
		defer shutdownTelemetry()

		svc, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.Watch(cmd.Context()); err != nil {
			slog.Warn("Unable to watch storage changes, edits from other processes need a restart", slog.Any("error", err))
		}

		return api.New(conf, svc).Start()
	},
}

// Register the "server" command
func init() {
	rootCmd.AddCommand(serverCmd)
}
