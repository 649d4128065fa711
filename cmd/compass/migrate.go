package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contraceptive-compass-server/internal/database"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema used by history and feedback",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := newMigrationRunner(cmd)
			if err != nil {
				return err
			}
			defer runner.Close()
			return runner.Up(cmd.Context())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := newMigrationRunner(cmd)
			if err != nil {
				return err
			}
			defer runner.Close()
			return runner.Down(cmd.Context())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := newMigrationRunner(cmd)
			if err != nil {
				return err
			}
			defer runner.Close()

			version, dirty, err := runner.Version()
			if err != nil {
				return err
			}
			state := "clean"
			if dirty {
				state = "dirty"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d (%s)\n", version, state)
			return nil
		},
	})

	return cmd
}

func newMigrationRunner(cmd *cobra.Command) (*database.MigrationRunner, error) {
	manager, err := loadManager(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	dbConfig := database.ConfigFromDomain(*manager.GetDatabaseConfig())
	return database.NewMigrationRunner(dbConfig.URL(), logger)
}
