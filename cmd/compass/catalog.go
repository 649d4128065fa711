package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contraceptive-compass-server/internal/domain"
	"github.com/contraceptive-compass-server/internal/report"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newMethodsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "methods [name]",
		Short: "Describe catalog methods",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cmd)
			if err != nil {
				return err
			}

			methods := cat.Methods()
			if len(args) == 1 {
				m, err := cat.Method(args[0])
				if err != nil {
					return err
				}
				methods = []domain.Method{m}
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), methods)
			}

			cards := make([]string, 0, len(methods))
			for _, m := range methods {
				cards = append(cards, report.MethodCard(m))
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(cards, "\n\n"))
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print methods as JSON")
	return cmd
}

func newQuestionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "List the questionnaire and its answer options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(cmd)
			if err != nil {
				return err
			}

			questions := cat.Questions()
			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(out, questions)
			}

			for i, q := range questions {
				if i > 0 {
					fmt.Fprintln(out)
				}
				kind := "choose one"
				if q.Multi {
					kind = "choose any"
				}
				fmt.Fprintf(out, "%s: %s (%s)\n", q.ID, q.Label, kind)
				for _, opt := range q.Options {
					fmt.Fprintf(out, "  - %s\n", opt)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print questions as JSON")
	return cmd
}

func newTelehealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "telehealth",
		Short: "List telehealth providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.TelehealthList(cat.Telehealth()))
			return nil
		},
	}
}
