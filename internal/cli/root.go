package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gmailcli/internal/mailerr"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:          "gmail-cli",
		Short:        "gmail-cli is a CLI for Gmail accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(verbose)
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newAuthCmd())
	cmd.AddCommand(newAccountsCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newReadCmd())
	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(newDraftCmd())
	cmd.AddCommand(newAttachmentsCmd())
	cmd.AddCommand(newMarkCmd())
	cmd.AddCommand(newConfigCmd())

	cmd.SetErr(os.Stderr)
	cmd.SetOut(os.Stdout)

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if kind, ok := mailerr.KindOf(err); ok {
			fmt.Fprintf(os.Stderr, "error (%s): %v\n", kind, err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
