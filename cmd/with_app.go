package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"roadportal/internal/bootstrap"
	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/errs"
	cacheinfra "roadportal/internal/infrastructure/cache"
	"roadportal/internal/transport/httpapi"
	"roadportal/internal/usecase/accounts"
	"roadportal/internal/usecase/lifecycle"
	"roadportal/internal/usecase/listing"
)

// services are the pieces commands reach into after fx has wired them.
type services struct {
	Accounts  *accounts.Service
	Lifecycle *lifecycle.Service
	Listing   *listing.Service
	Server    *httpapi.Server
	Cache     *cacheinfra.SQLiteCache
}

func withApp(run func(cmd *cobra.Command, app *bootstrap.App, svc services) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		var (
			app *bootstrap.App
			svc services
		)
		fxApp := fx.New(
			bootstrap.Module,
			fx.NopLogger,
			fx.Provide(func() context.Context { return ctx }),
			fx.Provide(
				fx.Annotate(
					func() string { return cfgFile },
					fx.ResultTags(`name:"configFile"`),
				),
			),
			fx.Populate(&app, &svc.Accounts, &svc.Lifecycle, &svc.Listing, &svc.Server, &svc.Cache),
		)

		startCtx, cancelStart := context.WithTimeout(ctx, 15*time.Second)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}

		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelStop()
			if err := fxApp.Stop(stopCtx); err != nil {
				logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
			}
		}()

		logging.Configure(cmd.ErrOrStderr(), app.Config.App.Env, app.Config.App.LogLevel)
		cmd.SetContext(ctx)

		if err := run(cmd, app, svc); err != nil {
			return errs.Wrap(err, "run command")
		}
		return nil
	}
}
