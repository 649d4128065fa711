package main

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/contraceptive-compass-server/internal/catalog"
	"github.com/contraceptive-compass-server/internal/config"
	"github.com/contraceptive-compass-server/internal/domain"
	"github.com/contraceptive-compass-server/internal/service"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "compass",
		Short:         "Rule-based contraceptive method guidance",
		Long:          "Compass sorts the contraceptive method catalog into recommended, caution and contraindicated tiers from questionnaire answers. It is guidance, not medical advice.",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	root.PersistentFlags().String("config", "", "Path to a config file (defaults to config.yaml in the usual locations)")
	root.PersistentFlags().String("catalog", "", "Path to a method catalog YAML file (overrides catalog.path)")
	root.PersistentFlags().String("log-level", "warn", "Log level for diagnostics written to stderr")

	root.AddCommand(newRecommendCmd())
	root.AddCommand(newMethodsCmd())
	root.AddCommand(newQuestionsCmd())
	root.AddCommand(newTelehealthCmd())
	root.AddCommand(newFeedbackCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSetupCmd())

	return root
}

// loadManager reads configuration from --config when given, otherwise from
// the default search paths and COMPASS_* variables.
func loadManager(cmd *cobra.Command) (*config.Manager, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.NewManagerFromFile(path)
	}
	return config.NewManager()
}

func newLogger(cmd *cobra.Command) (*logrus.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	logger, _, err := config.NewLogger(domain.LoggingConfig{Level: level, Format: "text", Output: "stderr"})
	return logger, err
}

// loadCatalog resolves --catalog, then COMPASS_CATALOG_PATH, then the
// embedded catalog.
func loadCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	path, _ := cmd.Flags().GetString("catalog")
	if path == "" {
		path = config.LoadLiteConfig().CatalogPath
	}
	return catalog.LoadPath(path)
}

func newRecommender(cmd *cobra.Command) (*service.RecommenderService, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalog(cmd)
	if err != nil {
		return nil, err
	}
	return service.NewRecommenderService(cat, service.WithLogger(logger)), nil
}
