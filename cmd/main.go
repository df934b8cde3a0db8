package main

import (
	"fmt"
	"os"

	"catalog-service/pkg/config"
	"catalog-service/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "catalog-service",
	Short: "Building-materials catalog API",
	Long: `catalog-service serves the product catalog: public category and product
listings, session-protected administration, and product image uploads to
S3-compatible storage.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, purgeSessionsCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and initializes the global logger
func bootstrap() (*config.Config, *zap.Logger, error) {
	appConfig, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.InitLogger(appConfig); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return appConfig, logger.GetLogger(), nil
}
