package cmd

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"roadportal/internal/bootstrap"
	"roadportal/internal/errs"
	"roadportal/internal/usecase/reviewconsole"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Terminal consoles for staff",
}

var consoleReviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Work the pending report queue",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc services) error {
		ctx := cmd.Context()

		username, _ := cmd.Flags().GetString("username")
		if strings.TrimSpace(username) == "" {
			username = app.Config.Console.Username
		}
		if strings.TrimSpace(username) == "" {
			return errs.Validationf("console.username or --username is required")
		}

		// The console acts through the same token path as the HTTP API.
		token, err := svc.Accounts.IssueToken(ctx, username)
		if err != nil {
			return errs.Wrap(err, "issue console token")
		}
		actor, err := svc.Accounts.Authenticate(ctx, token.AccessToken)
		if err != nil {
			return errs.Wrap(err, "authenticate console user")
		}

		refresh, _ := cmd.Flags().GetDuration("refresh-interval")
		model := reviewconsole.NewReviewModel(ctx, svc.Listing, svc.Lifecycle, reviewconsole.Options{
			Actor:           actor,
			RefreshInterval: refresh,
		})

		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run review console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.AddCommand(consoleReviewCmd)
	consoleReviewCmd.Flags().String("username", "", "Officer account to act as (default console.username)")
	consoleReviewCmd.Flags().Duration("refresh-interval", 10*time.Second, "Queue refresh interval")
}
