package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gmailcli/internal/email"
	"gmailcli/internal/gmail"
)

func newReadCmd() *cobra.Command {
	var acct string
	var preferHTML bool

	cmd := &cobra.Command{
		Use:   "read <message-id>",
		Short: "Read a message",
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

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID: %s\n", msg.ID)
			if msg.Subject != "" {
				fmt.Fprintf(out, "Subject: %s\n", msg.Subject)
			}
			if msg.From != "" {
				fmt.Fprintf(out, "From: %s\n", msg.From)
			}
			if len(msg.To) > 0 {
				fmt.Fprintf(out, "To: %s\n", strings.Join(msg.To, ", "))
			}
			if len(msg.Cc) > 0 {
				fmt.Fprintf(out, "Cc: %s\n", strings.Join(msg.Cc, ", "))
			}
			if !msg.Date.IsZero() {
				fmt.Fprintf(out, "Date: %s\n", msg.Date.Format("2006-01-02 15:04:05 -0700"))
			}
			if len(msg.Labels) > 0 {
				fmt.Fprintf(out, "Labels: %s\n", strings.Join(msg.Labels, ", "))
			}
			for _, att := range msg.Attachments {
				fmt.Fprintf(out, "Attachment: %s (%s, %d bytes)\n", att.Filename, att.MIMEType, att.Size)
			}

			body := msg.BodyText
			if preferHTML && msg.BodyHTML != "" {
				body = msg.BodyHTML
			}
			if body == "" && msg.BodyHTML != "" {
				body = email.StripHTMLTags(msg.BodyHTML)
			}
			fmt.Fprintln(out, "")
			fmt.Fprintln(out, body)
			return nil
		},
	}

	cmd.Flags().StringVar(&acct, "account", "", "Account email to read as")
	cmd.Flags().BoolVar(&preferHTML, "html", false, "Print the raw HTML body when present")

	return cmd
}
