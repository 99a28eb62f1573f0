package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gmailcli/internal/email"
	"gmailcli/internal/gmail"
)

func newSendCmd() *cobra.Command {
	var (
		acct           string
		to             string
		cc             string
		bcc            string
		subject        string
		body           string
		bodyFile       string
		bodyHTML       string
		replyToMessage string
		replyAll       bool
		quote          bool
		withSignature  bool
		asDraft        bool
		attachments    []string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Compose and send a message",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			s, err := a.session(cmd.Context(), acct)
			if err != nil {
				return err
			}

			content, err := loadBody(body, bodyFile)
			if err != nil {
				return err
			}

			if replyAll && strings.TrimSpace(replyToMessage) == "" {
				return fmt.Errorf("--reply-all requires --reply-to-message")
			}
			if quote && strings.TrimSpace(replyToMessage) == "" {
				return fmt.Errorf("--quote requires --reply-to-message")
			}

			signature := ""
			if withSignature {
				err = s.invoker.Do(cmd.Context(), "settings.signature", true, func(ctx context.Context) error {
					var err error
					signature, err = s.client.Signature(ctx)
					return err
				})
				if err != nil {
					return err
				}
			}

			limit := attachmentLimit(a.cfg)

			var msg gmail.WireMessage
			if strings.TrimSpace(replyToMessage) != "" {
				var raw []byte
				var threadID string
				err = s.invoker.Do(cmd.Context(), "messages.getRaw", true, func(ctx context.Context) error {
					var err error
					raw, threadID, err = s.client.GetRawMessage(ctx, replyToMessage)
					return err
				})
				if err != nil {
					return err
				}

				info, err := email.ExtractReplyInfo(raw, quote)
				if err != nil {
					// The raw form did not parse; fall back to the
					// provider's parsed view of the message.
					var parsed *gmail.Message
					err = s.invoker.Do(cmd.Context(), "messages.get", true, func(ctx context.Context) error {
						var err error
						parsed, err = s.client.GetMessage(ctx, replyToMessage)
						return err
					})
					if err != nil {
						return err
					}
					info = email.ReplyInfoFromMessage(parsed)
				}
				info.ThreadID = threadID

				msg, err = email.BuildReply(email.ReplyInput{
					Original:        info,
					From:            s.account,
					Body:            content,
					BodyHTML:        bodyHTML,
					ReplyAll:        replyAll,
					Quote:           quote,
					To:              splitList(to),
					Cc:              splitList(cc),
					Attachments:     attachments,
					Signature:       signature,
					AttachmentLimit: limit,
				})
				if err != nil {
					return err
				}
			} else {
				msg, err = email.BuildMessage(email.ComposeInput{
					From:            s.account,
					To:              splitList(to),
					Cc:              splitList(cc),
					Bcc:             splitList(bcc),
					Subject:         subject,
					Body:            content,
					BodyHTML:        bodyHTML,
					Attachments:     attachments,
					Signature:       signature,
					AttachmentLimit: limit,
				})
				if err != nil {
					return err
				}
			}

			if asDraft {
				summary, err := a.draftManager(s).Create(cmd.Context(), msg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Draft %s saved.\n", summary.ID)
				return nil
			}

			var result gmail.SendResult
			err = s.invoker.Do(cmd.Context(), "messages.send", false, func(ctx context.Context) error {
				var err error
				result, err = s.client.SendMessage(ctx, msg)
				return err
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sent. Message %s in thread %s.\n", result.MessageID, result.ThreadID)
			return nil
		},
	}

	cmd.Flags().StringVar(&acct, "account", "", "Account email to send as")
	cmd.Flags().StringVar(&to, "to", "", "Comma-separated recipients")
	cmd.Flags().StringVar(&cc, "cc", "", "Comma-separated CC recipients")
	cmd.Flags().StringVar(&bcc, "bcc", "", "Comma-separated BCC recipients")
	cmd.Flags().StringVar(&subject, "subject", "", "Message subject")
	cmd.Flags().StringVar(&body, "body", "", "Message body (plain text)")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "Path to file containing message body ('-' for stdin)")
	cmd.Flags().StringVar(&bodyHTML, "body-html", "", "Message body (HTML)")
	cmd.Flags().StringVar(&replyToMessage, "reply-to-message", "", "Reply to message ID (uses headers and thread)")
	cmd.Flags().BoolVar(&replyAll, "reply-all", false, "Reply-all using original recipients (requires --reply-to-message)")
	cmd.Flags().BoolVar(&quote, "quote", false, "Include quoted original message (requires --reply-to-message)")
	cmd.Flags().BoolVar(&withSignature, "signature", false, "Append the account's configured signature")
	cmd.Flags().BoolVar(&asDraft, "draft", false, "Save as a draft instead of sending")
	cmd.Flags().StringSliceVar(&attachments, "attachment", nil, "Attachment file paths (repeatable)")

	return cmd
}
