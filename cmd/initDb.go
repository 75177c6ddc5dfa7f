package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"roadportal/internal/bootstrap"
	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/errs"
)

var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Apply database migrations",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ services) error {
		ctx := cmd.Context()
		logging.Info(ctx, "start init-db")

		if err := app.InitSchema(ctx); err != nil {
			logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "initialize schema")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "database schema initialized (%s)\n", app.Config.Database.Driver); err != nil {
			return errs.Wrap(err, "write init-db output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
}
