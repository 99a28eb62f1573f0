package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gmailcli/internal/gmail"
)

func newAttachmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attachments",
		Short: "Attachment operations",
	}
	cmd.AddCommand(newAttachmentsListCmd())
	cmd.AddCommand(newAttachmentsDownloadCmd())
	return cmd
}

func newAttachmentsListCmd() *cobra.Command {
	var acct string

	cmd := &cobra.Command{
		Use:   "list <message-id>",
		Short: "List attachments on a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			s, err := a.session(cmd.Context(), acct)
			if err != nil {
				return err
			}

			var msg *gmail.Message
			err = s.invoker.Do(cmd.Context(), "messages.get", true, func(ctx context.Context) error {
				var err error
				msg, err = s.client.GetMessage(ctx, args[0])
				return err
			})
			if err != nil {
				return err
			}

			if len(msg.Attachments) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No attachments.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			fmt.Fprintln(tw, "FILENAME\tTYPE\tSIZE")
			for _, att := range msg.Attachments {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", att.Filename, att.MIMEType, att.Size)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&acct, "account", "", "Account email to act as")

	return cmd
}

func newAttachmentsDownloadCmd() *cobra.Command {
	var acct string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download <message-id>",
		Short: "Download attachments from a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			s, err := a.session(cmd.Context(), acct)
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = "."
			}

			var msg *gmail.Message
			err = s.invoker.Do(cmd.Context(), "messages.get", true, func(ctx context.Context) error {
				var err error
				msg, err = s.client.GetMessage(ctx, args[0])
				return err
			})
			if err != nil {
				return err
			}
			if len(msg.Attachments) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No attachments found.")
				return nil
			}

			for _, att := range msg.Attachments {
				var data []byte
				err = s.invoker.Do(cmd.Context(), "attachments.get", true, func(ctx context.Context) error {
					var err error
					data, err = s.client.Attachment(ctx, msg.ID, att.ID)
					return err
				})
				if err != nil {
					return err
				}

				path := filepath.Join(outputDir, filepath.Base(att.Filename))
				if err := os.WriteFile(path, data, 0o600); err != nil {
					return fmt.Errorf("write attachment: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&acct, "account", "", "Account email to act as")
	cmd.Flags().StringVar(&outputDir, "output", ".", "Output directory")

	return cmd
}
