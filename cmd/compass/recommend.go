package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/contraceptive-compass-server/internal/domain"
	"github.com/contraceptive-compass-server/internal/report"
)

// answerFlags maps single-select flags onto question ids.
var answerFlags = map[string]string{
	"age-group":     domain.QuestionAgeGroup,
	"smoking":       domain.QuestionSmoking,
	"bmi":           domain.QuestionBMI,
	"periods":       domain.QuestionPeriods,
	"breastfeeding": domain.QuestionBreastfeeding,
	"priority":      domain.QuestionPriority,
}

func newRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Sort the method catalog into tiers for a set of answers",
		Example: `  compass recommend --smoking "Yes, 15 or more cigarettes per day" --priority "Highest effectiveness"
  compass recommend --answers answers.yaml --json`,
		Args: cobra.NoArgs,
		RunE: runRecommend,
	}

	for flag, question := range answerFlags {
		cmd.Flags().String(flag, "", fmt.Sprintf("Answer to the %s question", question))
	}
	cmd.Flags().StringArray("condition", nil, "Health condition (repeatable)")
	cmd.Flags().String("answers", "", "YAML or JSON file of answers keyed by question id")
	cmd.Flags().Bool("json", false, "Print the full recommendation as JSON")

	return cmd
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	raw, err := collectAnswers(cmd)
	if err != nil {
		return err
	}

	recommender, err := newRecommender(cmd)
	if err != nil {
		return err
	}

	rec, err := recommender.Recommend(cmd.Context(), raw)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	fmt.Fprintln(out, report.Summary(rec))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Telehealth options:")
	fmt.Fprintln(out, report.TelehealthList(recommender.Catalog().Telehealth()))
	return nil
}

// collectAnswers merges the answers file with flags; flags win.
func collectAnswers(cmd *cobra.Command) (domain.RawAnswers, error) {
	raw := domain.RawAnswers{}

	if path, _ := cmd.Flags().GetString("answers"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading answers file: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing answers file: %w", err)
		}
	}

	for flag, question := range answerFlags {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			raw[question] = v
		}
	}
	if cmd.Flags().Changed("condition") {
		conditions, _ := cmd.Flags().GetStringArray("condition")
		raw[domain.QuestionConditions] = conditions
	}

	return raw, nil
}
