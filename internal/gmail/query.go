package gmail

import (
	"fmt"
	"strings"
)

// Query holds the structured search filters; BuildQuery renders them to
// the provider's search syntax.
type Query struct {
	Text          string
	From          string
	To            string
	Subject       string
	Label         string
	After         string // YYYY-MM-DD
	Before        string // YYYY-MM-DD
	HasAttachment bool
}

func BuildQuery(q Query) string {
	var parts []string

	if q.Text != "" {
		parts = append(parts, q.Text)
	}
	if q.From != "" {
		parts = append(parts, fmt.Sprintf("from:%s", q.From))
	}
	if q.To != "" {
		parts = append(parts, fmt.Sprintf("to:%s", q.To))
	}
	if q.Subject != "" {
		parts = append(parts, fmt.Sprintf("subject:%s", q.Subject))
	}
	if q.Label != "" {
		parts = append(parts, fmt.Sprintf("label:%s", q.Label))
	}
	if q.After != "" {
		parts = append(parts, fmt.Sprintf("after:%s", q.After))
	}
	if q.Before != "" {
		parts = append(parts, fmt.Sprintf("before:%s", q.Before))
	}
	if q.HasAttachment {
		parts = append(parts, "has:attachment")
	}

	return strings.Join(parts, " ")
}
