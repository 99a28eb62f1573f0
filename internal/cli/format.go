package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gmailcli/internal/gmail"
)

func printMessages(out io.Writer, messages []gmail.MessageSummary) {
	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tFROM\tSUBJECT")
	for _, msg := range messages {
		date := ""
		if !msg.Date.IsZero() {
			date = msg.Date.Format(time.RFC3339)
		}
		subject := msg.Subject
		if msg.Unread {
			subject = "* " + subject
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", msg.ID, date, msg.From, subject)
	}
	_ = tw.Flush()
}
