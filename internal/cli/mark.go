package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newMarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Change message read state",
	}
	cmd.AddCommand(newMarkReadCmd())
	cmd.AddCommand(newMarkUnreadCmd())
	return cmd
}

func newMarkReadCmd() *cobra.Command {
	var acct string

	cmd := &cobra.Command{
		Use:   "read <message-id>",
		Short: "Mark a message as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return modifyUnreadLabel(cmd, acct, args[0], false)
		},
	}

	cmd.Flags().StringVar(&acct, "account", "", "Account email to act as")

	return cmd
}

func newMarkUnreadCmd() *cobra.Command {
	var acct string

	cmd := &cobra.Command{
		Use:   "unread <message-id>",
		Short: "Mark a message as unread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return modifyUnreadLabel(cmd, acct, args[0], true)
		},
	}

	cmd.Flags().StringVar(&acct, "account", "", "Account email to act as")

	return cmd
}

func modifyUnreadLabel(cmd *cobra.Command, acct, messageID string, unread bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	s, err := a.session(cmd.Context(), acct)
	if err != nil {
		return err
	}

	var add, remove []string
	if unread {
		add = []string{"UNREAD"}
	} else {
		remove = []string{"UNREAD"}
	}

	err = s.invoker.Do(cmd.Context(), "messages.modify", true, func(ctx context.Context) error {
		return s.client.ModifyLabels(ctx, messageID, add, remove)
	})
	if err != nil {
		return err
	}

	if unread {
		fmt.Fprintln(cmd.OutOrStdout(), "Marked unread.")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Marked read.")
	}
	return nil
}
