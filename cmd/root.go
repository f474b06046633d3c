package cmd

import (
	"fmt"
	"os"
	"strings"

	"smartstay-cli/api"
	"smartstay-cli/config"
	"smartstay-cli/logging"
	"smartstay-cli/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	outputJSON    bool
	outputCompact bool
	apiURL        string
	logLevel      string
	cfg           = config.Default()
	client        = api.NewClient()
	logger        = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "smartstay",
	Short: "SmartStay room allocation control surface",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputJSON && outputCompact {
			return fmt.Errorf("choose either --json or --compact")
		}
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	SilenceUsage: true,
}

func Execute() {
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(bookCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(randomizeCmd())
	rootCmd.AddCommand(scenarioCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(consoleCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output JSON")
	rootCmd.PersistentFlags().BoolVar(&outputCompact, "compact", false, "Output compact text")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Allocation backend base URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func setup() error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = loaded

	built, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	logger = built

	client.BaseURL = strings.TrimRight(cfg.APIURL, "/")
	client.SetTimeout(cfg.Timeout.Std())
	return nil
}

func loadConfig() (config.Config, error) {
	path, err := storage.ConfigPath()
	if err != nil {
		return config.Config{}, err
	}
	loaded, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if apiURL != "" {
		loaded.APIURL = apiURL
	}
	if logLevel != "" {
		loaded.LogLevel = logLevel
	}
	return loaded, nil
}
