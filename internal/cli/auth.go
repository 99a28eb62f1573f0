package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gmailcli/internal/auth"
	"gmailcli/internal/config"
	"gmailcli/internal/creds"
	"gmailcli/internal/gmail"
	"gmailcli/internal/token"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Account authorization",
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthRefreshCmd())
	return cmd
}

func (a *app) authService() *auth.Service {
	return &auth.Service{
		Repo:     a.repo,
		Tokens:   a.tokens,
		Resolver: a.resolver,
		NewClient: func(ctx context.Context, cred *creds.Credential) (gmail.Client, error) {
			return a.newClient(ctx, token.Source(cred))
		},
		Log: a.log,
	}
}

func newAuthLoginCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize a Gmail account in the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := config.ValidateOAuth(a.cfg); err != nil {
				return err
			}

			cred, err := auth.RunLoopbackFlow(cmd.Context(), auth.FlowOptions{
				ClientID:     a.cfg.OAuth.ClientID,
				ClientSecret: a.cfg.OAuth.ClientSecret,
				Out:          cmd.OutOrStdout(),
				Timeout:      timeout,
			})
			if err != nil {
				return err
			}

			result, err := a.authService().Login(cmd.Context(), cred)
			if err != nil {
				return err
			}

			if result.IsDefault {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (default account).\n", result.Email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", result.Email)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for browser authorization")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "logout [email]",
		Short: "Remove stored credentials",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			email := ""
			if len(args) == 1 {
				email = args[0]
			}
			if all && email != "" {
				return fmt.Errorf("use either an email argument or --all")
			}

			removed, err := a.authService().Logout(email, all)
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No accounts to log out.")
				return nil
			}
			for _, account := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s.\n", account)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every stored account")

	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	var acct string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the resolved account's token state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			info, err := a.authService().Status(acct)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Account: %s\n", info.Email)
			if info.IsDefault {
				fmt.Fprintln(cmd.OutOrStdout(), "Default: yes")
			}
			if info.Expiry != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Token expires: %s\n", info.Expiry.Format(time.RFC3339))
			}
			switch {
			case info.Expired:
				fmt.Fprintln(cmd.OutOrStdout(), "Token: expired (refreshed on next use)")
			case info.NeedsRefresh:
				fmt.Fprintln(cmd.OutOrStdout(), "Token: expiring soon (refreshed on next use)")
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "Token: valid")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&acct, "account", "", "Account email to inspect")

	return cmd
}

func newAuthRefreshCmd() *cobra.Command {
	var acct string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Force a token refresh for the resolved account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			cred, err := a.authService().Refresh(cmd.Context(), acct)
			if err != nil {
				return err
			}

			if cred.Expiry != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Token for %s refreshed, expires %s.\n", cred.Email, cred.Expiry.Format(time.RFC3339))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Token for %s refreshed.\n", cred.Email)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&acct, "account", "", "Account email to refresh")

	return cmd
}
