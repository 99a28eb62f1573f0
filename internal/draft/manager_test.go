package draft

import (
	"context"
	"errors"
	"testing"
	"time"

	"gmailcli/internal/gmail"
	"gmailcli/internal/mailerr"
	"gmailcli/internal/retry"
)

type classedError struct {
	class retry.Class
	msg   string
}

func (e *classedError) Error() string { return e.msg }

func classify(err error) retry.Class {
	var ce *classedError
	if errors.As(err, &ce) {
		return ce.class
	}
	return retry.ClassNone
}

// fakeClient implements gmail.Client; only the draft surface is wired.
type fakeClient struct {
	gmail.Client

	createErr   error
	createCalls int

	drafts    []gmail.DraftSummary
	nextToken string

	getDetail *gmail.DraftDetail
	getErr    error

	sendResult gmail.SendResult
	sendErr    error
	sendCalls  int

	deleteErr    error
	deletedIDs   []string
	deletedCalls int
}

func (f *fakeClient) CreateDraft(ctx context.Context, msg gmail.WireMessage) (gmail.DraftSummary, error) {
	f.createCalls++
	if f.createErr != nil {
		return gmail.DraftSummary{}, f.createErr
	}
	return gmail.DraftSummary{ID: "d1", Subject: "saved"}, nil
}

func (f *fakeClient) ListDrafts(ctx context.Context, pageSize int64, pageToken string) ([]gmail.DraftSummary, string, error) {
	return f.drafts, f.nextToken, nil
}

func (f *fakeClient) GetDraft(ctx context.Context, id string) (*gmail.DraftDetail, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getDetail, nil
}

func (f *fakeClient) SendDraft(ctx context.Context, id string) (gmail.SendResult, error) {
	f.sendCalls++
	if f.sendErr != nil {
		return gmail.SendResult{}, f.sendErr
	}
	return f.sendResult, nil
}

func (f *fakeClient) DeleteDraft(ctx context.Context, id string) error {
	f.deletedCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

func newTestManager(client gmail.Client) *Manager {
	inv := retry.NewInvoker(retry.Policy{MaxRetries: 2, Delays: []time.Duration{time.Millisecond}}, classify, nil)
	inv.Sleep = func(time.Duration) {}
	return NewManager(client, inv, nil)
}

func TestCreateReturnsSummary(t *testing.T) {
	fake := &fakeClient{}
	m := newTestManager(fake)

	summary, err := m.Create(context.Background(), gmail.WireMessage{Raw: "abc"})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if summary.ID != "d1" {
		t.Fatalf("draft id = %q", summary.ID)
	}
}

func TestCreateTransientNotRetried(t *testing.T) {
	fake := &fakeClient{createErr: &classedError{class: retry.ClassTransient, msg: "connection reset"}}
	m := newTestManager(fake)

	_, err := m.Create(context.Background(), gmail.WireMessage{Raw: "abc"})
	var tf *mailerr.TransientFailureError
	if !errors.As(err, &tf) {
		t.Fatalf("expected transient failure, got %v", err)
	}
	if fake.createCalls != 1 {
		t.Fatalf("create is not idempotent, expected 1 attempt, got %d", fake.createCalls)
	}
}

func TestListPassesContinuationToken(t *testing.T) {
	fake := &fakeClient{
		drafts:    []gmail.DraftSummary{{ID: "d1"}, {ID: "d2"}},
		nextToken: "page2",
	}
	m := newTestManager(fake)

	drafts, next, err := m.List(context.Background(), 20, "")
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 2 || next != "page2" {
		t.Fatalf("drafts=%d next=%q", len(drafts), next)
	}
}

func TestGetMissingDraft(t *testing.T) {
	fake := &fakeClient{getErr: &classedError{class: retry.ClassNotFound, msg: "404"}}
	m := newTestManager(fake)

	_, err := m.Get(context.Background(), "gone")
	var nf *mailerr.DraftNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected draft not found, got %v", err)
	}
	if nf.DraftID != "gone" {
		t.Fatalf("draft id = %q", nf.DraftID)
	}
}

func TestSendConsumesDraft(t *testing.T) {
	fake := &fakeClient{sendResult: gmail.SendResult{MessageID: "m9", ThreadID: "t9"}}
	m := newTestManager(fake)

	result, state, err := m.Send(context.Background(), "d1")
	if err != nil {
		t.Fatalf("send draft: %v", err)
	}
	if result.MessageID != "m9" || result.ThreadID != "t9" {
		t.Fatalf("result = %+v", result)
	}
	if state != StateSent {
		t.Fatalf("state = %q, want %q", state, StateSent)
	}
}

func TestSendMissingDraft(t *testing.T) {
	fake := &fakeClient{sendErr: &classedError{class: retry.ClassNotFound, msg: "404"}}
	m := newTestManager(fake)

	_, state, err := m.Send(context.Background(), "gone")
	var nf *mailerr.DraftNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected draft not found, got %v", err)
	}
	if state != StateNotFound {
		t.Fatalf("state = %q, want %q", state, StateNotFound)
	}
}

func TestSendInvalidDraft(t *testing.T) {
	fake := &fakeClient{sendErr: &classedError{class: retry.ClassInvalid, msg: "400 no recipients"}}
	m := newTestManager(fake)

	_, state, err := m.Send(context.Background(), "d1")
	var inv *mailerr.InvalidMessageError
	if !errors.As(err, &inv) {
		t.Fatalf("expected invalid message, got %v", err)
	}
	if state != StateSaved {
		t.Fatalf("rejected draft should stay saved, state = %q", state)
	}
	if fake.sendCalls != 1 {
		t.Fatalf("invalid send should not be retried, got %d attempts", fake.sendCalls)
	}
}

func TestSendRateLimitedRetries(t *testing.T) {
	fake := &fakeClient{sendErr: &classedError{class: retry.ClassRateLimit, msg: "429"}}
	m := newTestManager(fake)

	_, _, err := m.Send(context.Background(), "d1")
	var rl *mailerr.RateLimitExceededError
	if !errors.As(err, &rl) {
		t.Fatalf("expected rate limit exceeded, got %v", err)
	}
	if fake.sendCalls != 3 {
		t.Fatalf("rate-limited send retries up to the budget, got %d attempts", fake.sendCalls)
	}
}

func TestDeleteMissingDraft(t *testing.T) {
	fake := &fakeClient{deleteErr: &classedError{class: retry.ClassNotFound, msg: "404"}}
	m := newTestManager(fake)

	state, err := m.Delete(context.Background(), "gone")
	var nf *mailerr.DraftNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected draft not found, got %v", err)
	}
	if state != StateNotFound {
		t.Fatalf("state = %q, want %q", state, StateNotFound)
	}
}

func TestDelete(t *testing.T) {
	fake := &fakeClient{}
	m := newTestManager(fake)

	state, err := m.Delete(context.Background(), "d1")
	if err != nil {
		t.Fatalf("delete draft: %v", err)
	}
	if state != StateDeleted {
		t.Fatalf("state = %q, want %q", state, StateDeleted)
	}
	if len(fake.deletedIDs) != 1 || fake.deletedIDs[0] != "d1" {
		t.Fatalf("deleted ids = %v", fake.deletedIDs)
	}
}
