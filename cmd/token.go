package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/curaious/folio/internal/config"
	"github.com/curaious/folio/internal/services/session"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage admin tokens",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(cmd.Help())
	},
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue an admin token signed with ADMIN_TOKEN_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := config.ReadConfig()
		tokens, err := session.NewTokens(conf.ADMIN_TOKEN_SECRET, conf.ADMIN_TOKEN_TTL)
		if err != nil {
			return err
		}

		subject, _ := cmd.Flags().GetString("subject")
		token, expiresAt, err := tokens.Issue(subject)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().String("subject", "admin", "Subject recorded in the token")
	tokenCmd.AddCommand(tokenIssueCmd)

	rootCmd.AddCommand(tokenCmd)
}
