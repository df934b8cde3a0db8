package main

import (
	"catalog-service/pkg/database"
	"catalog-service/pkg/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		appConfig, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := database.Open(&appConfig.DB)
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("Database schema migrated", zap.String("driver", appConfig.DB.Driver))
		return nil
	},
}

var purgeSessionsCmd = &cobra.Command{
	Use:   "purge-sessions",
	Short: "Delete expired and revoked sessions from the database store",
	RunE: func(cmd *cobra.Command, args []string) error {
		appConfig, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := database.Open(&appConfig.DB)
		if err != nil {
			return err
		}
		defer database.Close(db)

		purged, err := session.NewDBStore(db).PurgeExpired(cmd.Context())
		if err != nil {
			return err
		}
		log.Info("Sessions purged", zap.Int64("count", purged))
		return nil
	},
}
