// Package gmail defines the small provider interface the rest of the CLI
// programs against, plus the adapter over the real API service. Commands
// and tests depend on Client, never on the generated API types.
package gmail

import "context"

type Client interface {
	Profile(ctx context.Context) (Profile, error)

	Search(ctx context.Context, query string, pageSize int64, pageToken string) (SearchPage, error)
	GetMessage(ctx context.Context, id string) (*Message, error)
	GetRawMessage(ctx context.Context, id string) ([]byte, string, error)
	SendMessage(ctx context.Context, msg WireMessage) (SendResult, error)
	ModifyLabels(ctx context.Context, id string, add, remove []string) error

	CreateDraft(ctx context.Context, msg WireMessage) (DraftSummary, error)
	ListDrafts(ctx context.Context, pageSize int64, pageToken string) ([]DraftSummary, string, error)
	GetDraft(ctx context.Context, id string) (*DraftDetail, error)
	SendDraft(ctx context.Context, id string) (SendResult, error)
	DeleteDraft(ctx context.Context, id string) error

	Attachment(ctx context.Context, messageID, attachmentID string) ([]byte, error)
	Signature(ctx context.Context) (string, error)
}
