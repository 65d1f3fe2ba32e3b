package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/curaious/folio/internal/config"
	"github.com/curaious/folio/internal/services"
	"github.com/curaious/folio/internal/services/session"
)

var rootCmd = &cobra.Command{
	Use:           "folio",
	Short:         "Portfolio project store, editor and catalog",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		err := godotenv.Overload()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Println("Error loading .env file, skipping")
		}

		conf := config.ReadConfig()
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: conf.LOG_LEVEL})))
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalln(err.Error())
	}
}

// openServices reads the config and wires services for a one-shot command.
// The caller must Close the result.
func openServices(ctx context.Context) (*services.Services, error) {
	svc, err := services.NewServices(ctx, config.ReadConfig())
	if err != nil {
		return nil, fmt.Errorf("unable to initialize services: %w", err)
	}
	return svc, nil
}

// requireSession fails unless an admin session was opened with
// `folio admin login`.
func requireSession(ctx context.Context, svc *services.Services) error {
	if err := svc.Gate.Require(ctx); err != nil {
		return fmt.Errorf("%w: run `folio admin login --token <token>` first", session.ErrLocked)
	}
	return nil
}
