package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/errs"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "roadportal",
	Short:        "Road and infrastructure reporting portal",
	Long:         "Citizen damage reports, officer review, public repair announcements and the GIS map feed.",
	SilenceUsage: true,
}

// Execute loads .env.local, configures logging from RP_APP_ENV and runs the
// selected command. withApp reconfigures logging once the config file is read.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	envErr := godotenv.Load(".env.local")

	logging.Configure(rootCmd.ErrOrStderr(), os.Getenv("RP_APP_ENV"), os.Getenv("RP_APP_LOG_LEVEL"))
	ctx = logging.WithAttrs(ctx, slog.String("app", "roadportal"))
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logging.Warn(ctx, "load .env.local failed", slog.Any("err", errs.Loggable(envErr)))
	}

	rootCmd.SetContext(ctx)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error(ctx, "command execution failed", slog.Any("err", errs.Loggable(err)))
		return errs.Wrap(err, "execute root command")
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "Config file path")
}
