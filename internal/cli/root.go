// Package cli implements the ingestctl command line.
package cli

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"

	"github.com/stefando/ingestGatewayAWS/internal/app"
	"github.com/stefando/ingestGatewayAWS/internal/config"
	"github.com/stefando/ingestGatewayAWS/internal/log"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger

	// loadAWSConfig is replaced in tests.
	loadAWSConfig = app.LoadAWSConfig
)

var rootCmd = &cobra.Command{
	Use:   "ingestctl",
	Short: "Ingestion gateway tooling",
	Long: `Tools around the ingestion completion gateway: run it locally, send a folder
of files through it as one batch, and run the raw-data and clean-data jobs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.LogLevel = logLevel
		}
		cfg = c
		logger = log.SetupWriter(cmd.ErrOrStderr(), cfg.LogLevel)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to a YAML config file (environment variables override it)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: DEBUG, INFO, WARN or ERROR")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newArchiveCmd())
	rootCmd.AddCommand(newTransformCmd())
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv()
	}
	return config.Load(path)
}

func awsConfig(ctx context.Context) (aws.Config, error) {
	return loadAWSConfig(ctx, cfg.Region)
}
