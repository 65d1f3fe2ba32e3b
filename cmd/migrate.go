package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/curaious/folio/internal/config"
	"github.com/curaious/folio/internal/db"
	"github.com/curaious/folio/internal/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run Migrations for the postgres storage driver",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(cmd.Help())
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(m *migrations.Migrator) error {
			for _, s := range m.Status() {
				state := "pending"
				if s.Done {
					state = "completed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Migration %s... %s\n", s.Version, state)
			}
			return nil
		})
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run up migrations",
	Long:  "Run all 'up' migrations by default.\nIf step is provided, it will run `N` 'up' migrations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := cmd.Flags().GetInt("step")
		if err != nil {
			return fmt.Errorf("unable to read flag `step`: %w", err)
		}

		return withMigrator(cmd.Context(), func(m *migrations.Migrator) error {
			if err := m.Up(cmd.Context(), step); err != nil {
				return fmt.Errorf("unable to run `up` migrations: %w", err)
			}
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Run down migrations",
	Long:  "Run all 'down' migrations by default.\nIf step is provided, it will run `N` 'down' migrations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := cmd.Flags().GetInt("step")
		if err != nil {
			return fmt.Errorf("unable to read flag `step`: %w", err)
		}

		return withMigrator(cmd.Context(), func(m *migrations.Migrator) error {
			if err := m.Down(cmd.Context(), step); err != nil {
				return fmt.Errorf("unable to run `down` migrations: %w", err)
			}
			return nil
		})
	},
}

func withMigrator(ctx context.Context, fn func(*migrations.Migrator) error) error {
	conn, err := db.NewConn(config.ReadConfig())
	if err != nil {
		return err
	}
	defer conn.Close()

	m, err := migrations.NewMigrator(ctx, conn)
	if err != nil {
		return fmt.Errorf("unable to initialize migrator: %w", err)
	}

	return fn(m)
}

// Register the "migrate" command
func init() {
	migrateUpCmd.Flags().IntP("step", "s", 0, "Number of migrations to execute")
	migrateCmd.AddCommand(migrateUpCmd)

	migrateDownCmd.Flags().IntP("step", "s", 0, "Number of migrations to execute")
	migrateCmd.AddCommand(migrateDownCmd)

	migrateCmd.AddCommand(migrateStatusCmd)

	rootCmd.AddCommand(migrateCmd)
}
