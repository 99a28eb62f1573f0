package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Registered account management",
	}
	cmd.AddCommand(newAccountsListCmd())
	cmd.AddCommand(newAccountsSwitchCmd())
	return cmd
}

func newAccountsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if _, err := a.repo.MigrateLegacy(); err != nil {
				a.log.Warn("legacy credential migration failed", "error", err)
			}

			accounts, err := a.repo.ListAccounts()
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No accounts. Run 'gmail-cli auth login' first.")
				return nil
			}

			def, err := a.repo.DefaultAccount()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			fmt.Fprintln(tw, "ACCOUNT\tDEFAULT")
			for _, account := range accounts {
				marker := ""
				if account == def {
					marker = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\n", account, marker)
			}
			return tw.Flush()
		},
	}
	return cmd
}

func newAccountsSwitchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "switch <email>",
		Short: "Change the default account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			if err := a.repo.SetDefaultAccount(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default account is now %s.\n", args[0])
			return nil
		},
	}
	return cmd
}
