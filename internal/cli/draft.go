package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gmailcli/internal/draft"
	"gmailcli/internal/email"
)

func newDraftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Draft operations",
	}
	cmd.AddCommand(newDraftCreateCmd())
	cmd.AddCommand(newDraftListCmd())
	cmd.AddCommand(newDraftGetCmd())
	cmd.AddCommand(newDraftSendCmd())
	cmd.AddCommand(newDraftDeleteCmd())
	return cmd
}

func newDraftCreateCmd() *cobra.Command {
	var (
		acct        string
		to          string
		cc          string
		bcc         string
		subject     string
		body        string
		bodyFile    string
		bodyHTML    string
		attachments []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Save a new draft",
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

			msg, err := email.BuildMessage(email.ComposeInput{
				From:            s.account,
				To:              splitList(to),
				Cc:              splitList(cc),
				Bcc:             splitList(bcc),
				Subject:         subject,
				Body:            content,
				BodyHTML:        bodyHTML,
				Attachments:     attachments,
				AttachmentLimit: attachmentLimit(a.cfg),
			})
			if err != nil {
				return err
			}

			summary, err := a.draftManager(s).Create(cmd.Context(), msg)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Draft %s saved.\n", summary.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&acct, "account", "", "Account email to act as")
	cmd.Flags().StringVar(&to, "to", "", "Comma-separated recipients")
	cmd.Flags().StringVar(&cc, "cc", "", "Comma-separated CC recipients")
	cmd.Flags().StringVar(&bcc, "bcc", "", "Comma-separated BCC recipients")
	cmd.Flags().StringVar(&subject, "subject", "", "Message subject")
	cmd.Flags().StringVar(&body, "body", "", "Message body (plain text)")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "Path to file containing message body ('-' for stdin)")
	cmd.Flags().StringVar(&bodyHTML, "body-html", "", "Message body (HTML)")
	cmd.Flags().StringSliceVar(&attachments, "attachment", nil, "Attachment file paths (repeatable)")

	return cmd
}

func newDraftListCmd() *cobra.Command {
	var acct string
	var pageSize int64
	var pageToken string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			s, err := a.session(cmd.Context(), acct)
			if err != nil {
				return err
			}

			if pageSize <= 0 {
				pageSize = int64(a.cfg.Defaults.PageSize)
			}

			drafts, next, err := a.draftManager(s).List(cmd.Context(), pageSize, pageToken)
			if err != nil {
				return err
			}
			if len(drafts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No drafts.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTO\tSUBJECT")
			for _, d := range drafts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.ID, d.To, d.Subject)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if next != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nNext page: --page-token %s\n", next)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&acct, "account", "", "Account email to act as")
	cmd.Flags().Int64Var(&pageSize, "page-size", 0, "Drafts per page")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Continuation token from the previous page")

	return cmd
}

func newDraftGetCmd() *cobra.Command {
	var acct string

	cmd := &cobra.Command{
		Use:   "get <draft-id>",
		Short: "Show a draft",
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

			detail, err := a.draftManager(s).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Draft: %s\n", detail.ID)
			if detail.To != "" {
				fmt.Fprintf(out, "To: %s\n", detail.To)
			}
			if detail.Cc != "" {
				fmt.Fprintf(out, "Cc: %s\n", detail.Cc)
			}
			if detail.Subject != "" {
				fmt.Fprintf(out, "Subject: %s\n", detail.Subject)
			}
			for _, att := range detail.Attachments {
				fmt.Fprintf(out, "Attachment: %s (%d bytes)\n", att.Filename, att.Size)
			}
			fmt.Fprintln(out, "")
			fmt.Fprintln(out, detail.BodyText)
			return nil
		},
	}

	cmd.Flags().StringVar(&acct, "account", "", "Account email to act as")

	return cmd
}

func newDraftSendCmd() *cobra.Command {
	var acct string

	cmd := &cobra.Command{
		Use:   "send <draft-id>",
		Short: "Send a saved draft",
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

			result, _, err := a.draftManager(s).Send(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Draft sent. Message %s in thread %s.\n", result.MessageID, result.ThreadID)
			return nil
		},
	}

	cmd.Flags().StringVar(&acct, "account", "", "Account email to act as")

	return cmd
}

func newDraftDeleteCmd() *cobra.Command {
	var acct string

	cmd := &cobra.Command{
		Use:   "delete <draft-id>",
		Short: "Delete a draft",
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

			state, err := a.draftManager(s).Delete(cmd.Context(), args[0])
			if state == draft.StateNotFound {
				// Already sent or deleted; nothing left to clean up.
				fmt.Fprintln(cmd.OutOrStdout(), "Draft already removed.")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Draft deleted.")
			return nil
		},
	}

	cmd.Flags().StringVar(&acct, "account", "", "Account email to act as")

	return cmd
}
