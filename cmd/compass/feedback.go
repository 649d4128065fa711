package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/contraceptive-compass-server/internal/database"
	"github.com/contraceptive-compass-server/internal/domain"
	"github.com/contraceptive-compass-server/internal/feedback"
)

func newFeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Export, import and inspect stored feedback",
	}
	cmd.PersistentFlags().String("db", "", "SQLite feedback database (overrides the configured store)")

	cmd.AddCommand(&cobra.Command{
		Use:   "export [file]",
		Short: "Write all feedback as JSON to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openFeedbackStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			var w io.Writer = cmd.OutOrStdout()
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("creating export file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return store.ExportJSON(cmd.Context(), w)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Load feedback from a JSON export, skipping entries already stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openFeedbackStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening import file: %w", err)
			}
			defer f.Close()

			imported, skipped, err := store.ImportJSON(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries, skipped %d\n", imported, skipped)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Print the number of stored feedback entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openFeedbackStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	})

	return cmd
}

func openFeedbackStore(cmd *cobra.Command) (feedback.Store, error) {
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		return feedback.NewSQLiteStore(path)
	}

	manager, err := loadManager(cmd)
	if err != nil {
		return nil, err
	}
	cfg := manager.GetConfig()
	dsn := ""
	if cfg.Feedback.Driver == domain.FeedbackDriverPostgres {
		dsn = database.ConfigFromDomain(cfg.Database).DSN()
	}
	return feedback.Open(cfg.Feedback, cfg.Database, dsn)
}
