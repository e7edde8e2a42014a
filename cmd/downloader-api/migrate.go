package main

import (
	"context"

	"github.com/mediafetch/video-downloader/internal/config"
	"github.com/mediafetch/video-downloader/internal/store"
	"github.com/mediafetch/video-downloader/pkg/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()
		defer zap.S().Info("Db migrated")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		return migrate(cmd.Context(), cfg, db, s)
	},
}

// migrate runs the goose migrations when a folder is configured and falls
// back to gorm's AutoMigrate otherwise.
func migrate(ctx context.Context, cfg *config.Config, db *gorm.DB, s store.Store) error {
	if cfg.Service.MigrationFolder == "" {
		return s.InitialMigration(ctx)
	}

	return migrations.MigrateStore(db, store.Dialect(cfg), cfg.Service.MigrationFolder)
}
