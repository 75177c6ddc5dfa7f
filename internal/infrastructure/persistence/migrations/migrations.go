package migrations

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/errs"
	"roadportal/internal/infrastructure/persistence/sqlite/model"
)

// Migrations are append-only. Never edit an applied entry.
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "20261019_create_portal_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(model.All()...)
			},
			Rollback: func(tx *gorm.DB) error {
				tables := model.All()
				for i := len(tables) - 1; i >= 0; i-- {
					if err := tx.Migrator().DropTable(tables[i]); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			ID: "20261019_kv_expiry_index",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec("CREATE INDEX IF NOT EXISTS idx_app_kv_expires_at ON app_kv (expires_at)").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS idx_app_kv_expires_at").Error
			},
		},
	}
}

// Run applies every pending migration.
func Run(ctx context.Context, db *gorm.DB) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if db == nil {
		return errors.New("database is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "persistence.migrations"))
	logging.Info(logCtx, "start schema migration", slog.Int("migrations", len(Migrations())))

	m := gormigrate.New(db.WithContext(ctx), gormigrate.DefaultOptions, Migrations())
	if err := m.Migrate(); err != nil {
		return errs.Wrap(err, "migrate schema")
	}

	logging.Info(logCtx, "schema migration completed")
	return nil
}
