// Package draft manages server-side drafts. Drafts live on the provider;
// the manager adds retry handling and maps provider errors onto the
// draft lifecycle (a sent or deleted draft id stops resolving).
package draft

import (
	"context"
	"log/slog"

	"gmailcli/internal/gmail"
	"gmailcli/internal/mailerr"
	"gmailcli/internal/retry"
)

// State describes where a draft is in its lifecycle. Saved drafts can be
// fetched, sent, or deleted; Sent and Deleted are terminal. The zero
// State means the outcome of an operation could not be determined.
type State string

const (
	StateSaved    State = "saved"
	StateSent     State = "sent"
	StateDeleted  State = "deleted"
	StateNotFound State = "not_found"
)

type Manager struct {
	Client   gmail.Client
	Invoker  *retry.Invoker
	Classify retry.Classifier
	Log      *slog.Logger
}

func NewManager(client gmail.Client, invoker *retry.Invoker, log *slog.Logger) *Manager {
	return &Manager{Client: client, Invoker: invoker, Classify: invoker.Classify, Log: log}
}

// Create saves a composed message as a draft and returns its summary.
func (m *Manager) Create(ctx context.Context, msg gmail.WireMessage) (gmail.DraftSummary, error) {
	var summary gmail.DraftSummary
	err := m.Invoker.Do(ctx, "drafts.create", false, func(ctx context.Context) error {
		var err error
		summary, err = m.Client.CreateDraft(ctx, msg)
		return err
	})
	if err != nil {
		return gmail.DraftSummary{}, err
	}
	if m.Log != nil {
		m.Log.Debug("draft saved", "draft_id", summary.ID, "state", StateSaved)
	}
	return summary, nil
}

// List returns a page of drafts plus the continuation token for the next
// page, empty when the listing is exhausted.
func (m *Manager) List(ctx context.Context, pageSize int64, pageToken string) ([]gmail.DraftSummary, string, error) {
	var drafts []gmail.DraftSummary
	var next string
	err := m.Invoker.Do(ctx, "drafts.list", true, func(ctx context.Context) error {
		var err error
		drafts, next, err = m.Client.ListDrafts(ctx, pageSize, pageToken)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return drafts, next, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*gmail.DraftDetail, error) {
	var detail *gmail.DraftDetail
	err := m.Invoker.Do(ctx, "drafts.get", true, func(ctx context.Context) error {
		var err error
		detail, err = m.Client.GetDraft(ctx, id)
		return err
	})
	if err != nil {
		_, err = m.lifecycleState(id, err)
		return nil, err
	}
	return detail, nil
}

// Send submits a saved draft and reports its resulting state. On
// success the provider consumes the draft (StateSent), so the id must
// not be reused. A draft the provider rejects stays saved.
func (m *Manager) Send(ctx context.Context, id string) (gmail.SendResult, State, error) {
	var result gmail.SendResult
	err := m.Invoker.Do(ctx, "drafts.send", false, func(ctx context.Context) error {
		var err error
		result, err = m.Client.SendDraft(ctx, id)
		return err
	})
	if err != nil {
		if m.Classify != nil && m.Classify(err) == retry.ClassInvalid {
			return gmail.SendResult{}, StateSaved, &mailerr.InvalidMessageError{Reason: "draft cannot be sent as composed", Err: err}
		}
		state, err := m.lifecycleState(id, err)
		return gmail.SendResult{}, state, err
	}
	if m.Log != nil {
		m.Log.Debug("draft sent", "draft_id", id, "message_id", result.MessageID, "state", StateSent)
	}
	return result, StateSent, nil
}

// Delete discards a saved draft and reports its resulting state.
// Deleting an id that no longer resolves reports StateNotFound with
// DraftNotFound; callers cleaning up may treat that as done.
func (m *Manager) Delete(ctx context.Context, id string) (State, error) {
	err := m.Invoker.Do(ctx, "drafts.delete", false, func(ctx context.Context) error {
		return m.Client.DeleteDraft(ctx, id)
	})
	if err != nil {
		return m.lifecycleState(id, err)
	}
	return StateDeleted, nil
}

// lifecycleState turns the provider's not-found on a draft id into the
// lifecycle error: a sent or deleted draft id stops resolving, so the
// draft's state is StateNotFound. Everything else passes through with
// the zero State.
func (m *Manager) lifecycleState(id string, err error) (State, error) {
	if m.Classify != nil && m.Classify(err) == retry.ClassNotFound {
		return StateNotFound, &mailerr.DraftNotFoundError{DraftID: id}
	}
	return "", err
}
