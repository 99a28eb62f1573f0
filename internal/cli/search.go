package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gmailcli/internal/gmail"
)

func newSearchCmd() *cobra.Command {
	var (
		acct          string
		from          string
		to            string
		subject       string
		label         string
		after         string
		before        string
		hasAttachment bool
		pageSize      int64
		pageToken     string
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search messages",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			s, err := a.session(cmd.Context(), acct)
			if err != nil {
				return err
			}

			query := gmail.BuildQuery(gmail.Query{
				Text:          strings.Join(args, " "),
				From:          from,
				To:            to,
				Subject:       subject,
				Label:         label,
				After:         after,
				Before:        before,
				HasAttachment: hasAttachment,
			})

			if pageSize <= 0 {
				pageSize = int64(a.cfg.Defaults.PageSize)
			}

			var page gmail.SearchPage
			err = s.invoker.Do(cmd.Context(), "messages.search", true, func(ctx context.Context) error {
				var err error
				page, err = s.client.Search(ctx, query, pageSize, pageToken)
				return err
			})
			if err != nil {
				return err
			}

			if len(page.Messages) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No messages found.")
				return nil
			}
			printMessages(cmd.OutOrStdout(), page.Messages)
			if page.NextPageToken != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nNext page: --page-token %s\n", page.NextPageToken)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&acct, "account", "", "Account email to search as")
	cmd.Flags().StringVar(&from, "from", "", "Filter by sender")
	cmd.Flags().StringVar(&to, "to", "", "Filter by recipient")
	cmd.Flags().StringVar(&subject, "subject", "", "Filter by subject")
	cmd.Flags().StringVar(&label, "label", "", "Filter by label")
	cmd.Flags().StringVar(&after, "after", "", "Only messages after date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&before, "before", "", "Only messages before date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&hasAttachment, "has-attachment", false, "Only messages with attachments")
	cmd.Flags().Int64Var(&pageSize, "page-size", 0, "Messages per page")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Continuation token from the previous page")

	return cmd
}
