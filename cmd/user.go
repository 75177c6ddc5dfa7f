package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"roadportal/internal/bootstrap"
	"roadportal/internal/errs"
	"roadportal/internal/usecase/accounts"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage portal accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account (no admin login needed)",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		username, _ := cmd.Flags().GetString("username")
		fullName, _ := cmd.Flags().GetString("full-name")
		password, _ := cmd.Flags().GetString("password")
		role, _ := cmd.Flags().GetString("role")

		user, err := svc.Accounts.CreateUser(cmd.Context(), accounts.SystemActor, accounts.NewUser{
			Username: username,
			FullName: fullName,
			Password: password,
			Role:     role,
		})
		if err != nil {
			return errs.Wrap(err, "create user")
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", user.Username, user.Role, user.UserID)
		return err
	}),
}

var userTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token for an account",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc services) error {
		username, _ := cmd.Flags().GetString("username")
		token, err := svc.Accounts.IssueToken(cmd.Context(), username)
		if err != nil {
			return errs.Wrap(err, "issue token")
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(token)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
		return err
	}),
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd, userTokenCmd)

	userCreateCmd.Flags().String("username", "", "Login name")
	userCreateCmd.Flags().String("full-name", "", "Display name (defaults to username)")
	userCreateCmd.Flags().String("password", "", "Password, at least 8 characters")
	userCreateCmd.Flags().String("role", "lgu_officer", "citizen|lgu_officer|engineer|admin")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	userTokenCmd.Flags().String("username", "", "Login name")
	userTokenCmd.Flags().Bool("json", false, "Print the full token response")
	_ = userTokenCmd.MarkFlagRequired("username")
}
