package cli

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gmailcli/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Config management",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigEditCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var showSecret bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !showSecret {
				cfg = config.Redact(cfg)
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSecret, "show-secret", false, "Show the OAuth client secret in output")

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	var (
		clientID          string
		clientSecret      string
		maxRetries        int
		baseDelay         time.Duration
		pageSize          int
		attachmentLimitMB int64
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("client-id") {
				cfg.OAuth.ClientID = clientID
			}
			if cmd.Flags().Changed("client-secret") {
				cfg.OAuth.ClientSecret = clientSecret
			}
			if cmd.Flags().Changed("max-retries") {
				cfg.Retry.MaxRetries = maxRetries
			}
			if cmd.Flags().Changed("base-delay") {
				cfg.Retry.BaseDelay = baseDelay
			}
			if cmd.Flags().Changed("page-size") {
				cfg.Defaults.PageSize = pageSize
			}
			if cmd.Flags().Changed("attachment-limit-mb") {
				cfg.Defaults.AttachmentLimitMB = attachmentLimitMB
			}

			path, err := config.Save(cfg)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth client ID")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth client secret")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "Retry budget for remote calls")
	cmd.Flags().DurationVar(&baseDelay, "base-delay", 0, "Base backoff delay")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Default listing page size")
	cmd.Flags().Int64Var(&attachmentLimitMB, "attachment-limit-mb", 0, "Attachment size limit in MB")

	return cmd
}

func newConfigEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Open config file in $EDITOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPath()
			if err != nil {
				return err
			}
			editor := os.Getenv("EDITOR")
			if editor == "" {
				return fmt.Errorf("EDITOR not set; config file is %s", path)
			}
			editCmd := exec.Command(editor, path)
			editCmd.Stdout = os.Stdout
			editCmd.Stderr = os.Stderr
			editCmd.Stdin = os.Stdin
			return editCmd.Run()
		},
	}

	return cmd
}
