package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/curaious/folio/internal/services/session"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Open or close the admin editing session",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(cmd.Help())
	},
}

var adminLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Open the admin session with a token from `folio token issue`",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			return errors.New("--token is required")
		}

		svc, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		if svc.Tokens == nil {
			return session.ErrNoSecret
		}
		claims, err := svc.Tokens.Verify(token)
		if err != nil {
			return err
		}

		if err := svc.Gate.Login(cmd.Context()); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Admin session opened for %s\n", claims.Subject)
		return nil
	},
}

var adminLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Close the admin session",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.Gate.Logout(cmd.Context()); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Admin session closed")
		return nil
	},
}

var adminStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the admin session is open",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		if svc.Gate.Authenticated(cmd.Context()) {
			fmt.Fprintln(cmd.OutOrStdout(), "Admin session is open")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Admin session is locked")
		}
		return nil
	},
}

func init() {
	adminLoginCmd.Flags().String("token", "", "Admin token")
	adminCmd.AddCommand(adminLoginCmd, adminLogoutCmd, adminStatusCmd)

	rootCmd.AddCommand(adminCmd)
}
