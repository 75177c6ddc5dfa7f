// Package bootstrap assembles the portal with fx: config, database, stores,
// services and the HTTP server.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"roadportal/internal/bootstrap/config"
	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/errs"
	"roadportal/internal/infrastructure/persistence/migrations"
)

type App struct {
	Config   config.Config
	DB       *gorm.DB
	Location *time.Location
}

// InitSchema applies every pending migration.
func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration", slog.String("database_driver", a.Config.Database.Driver))

	if err := migrations.Run(ctx, a.DB); err != nil {
		return errs.Wrap(err, "run migrations")
	}

	logging.Info(logCtx, "schema migration completed")
	return nil
}

// Now is the current time in the configured timezone.
func (a *App) Now() time.Time {
	if a.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(a.Location)
}
