package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"gmailcli/internal/mailerr"
)

type classedError struct {
	msg   string
	class Class
}

func (e *classedError) Error() string { return e.msg }

func classify(err error) Class {
	var ce *classedError
	if errors.As(err, &ce) {
		return ce.class
	}
	return ClassNone
}

func newTestInvoker(slept *[]time.Duration) *Invoker {
	inv := NewInvoker(DefaultPolicy(), classify, nil)
	inv.Sleep = func(d time.Duration) {
		*slept = append(*slept, d)
	}
	return inv
}

func TestRateLimitedThenSucceeds(t *testing.T) {
	var slept []time.Duration
	inv := newTestInvoker(&slept)

	calls := 0
	err := inv.Do(context.Background(), "list", true, func(ctx context.Context) error {
		calls++
		if calls <= 2 {
			return &classedError{msg: "429", class: ClassRateLimit}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Fatalf("expected delays [1s 2s], got %v", slept)
	}
}

func TestFatalClassNotRetried(t *testing.T) {
	for _, class := range []Class{ClassAuth, ClassNotFound, ClassInvalid, ClassNone} {
		var slept []time.Duration
		inv := newTestInvoker(&slept)

		calls := 0
		wantErr := &classedError{msg: "fatal", class: class}
		err := inv.Do(context.Background(), "get", true, func(ctx context.Context) error {
			calls++
			return wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("class %v: expected original error, got %v", class, err)
		}
		if calls != 1 {
			t.Fatalf("class %v: expected 1 attempt, got %d", class, calls)
		}
		if len(slept) != 0 {
			t.Fatalf("class %v: expected no sleeps, got %v", class, slept)
		}
	}
}

func TestRateLimitExhaustionWraps(t *testing.T) {
	var slept []time.Duration
	inv := newTestInvoker(&slept)

	calls := 0
	err := inv.Do(context.Background(), "list", true, func(ctx context.Context) error {
		calls++
		return &classedError{msg: "429", class: ClassRateLimit}
	})

	var rateErr *mailerr.RateLimitExceededError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitExceededError, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 total attempts, got %d", calls)
	}
	if rateErr.Attempts != 4 {
		t.Fatalf("expected 4 attempts recorded, got %d", rateErr.Attempts)
	}
	if len(slept) != 3 || slept[0] != time.Second || slept[1] != 2*time.Second || slept[2] != 4*time.Second {
		t.Fatalf("expected delays [1s 2s 4s], got %v", slept)
	}
}

func TestTransientExhaustionWraps(t *testing.T) {
	var slept []time.Duration
	inv := newTestInvoker(&slept)

	err := inv.Do(context.Background(), "list", true, func(ctx context.Context) error {
		return &classedError{msg: "connection reset", class: ClassTransient}
	})

	var transErr *mailerr.TransientFailureError
	if !errors.As(err, &transErr) {
		t.Fatalf("expected TransientFailureError, got %v", err)
	}
	if transErr.Attempts != 4 {
		t.Fatalf("expected 4 attempts, got %d", transErr.Attempts)
	}
}

func TestTransientNonIdempotentNotRetried(t *testing.T) {
	var slept []time.Duration
	inv := newTestInvoker(&slept)

	calls := 0
	err := inv.Do(context.Background(), "send", false, func(ctx context.Context) error {
		calls++
		return &classedError{msg: "timeout", class: ClassTransient}
	})

	var transErr *mailerr.TransientFailureError
	if !errors.As(err, &transErr) {
		t.Fatalf("expected TransientFailureError, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected send not retried on unknown outcome, got %d attempts", calls)
	}
	if transErr.Attempts != 1 {
		t.Fatalf("expected 1 attempt recorded, got %d", transErr.Attempts)
	}
	if len(slept) != 0 {
		t.Fatalf("expected no sleeps, got %v", slept)
	}
}

func TestRateLimitedSendIsRetried(t *testing.T) {
	var slept []time.Duration
	inv := newTestInvoker(&slept)

	calls := 0
	err := inv.Do(context.Background(), "send", false, func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return &classedError{msg: "429", class: ClassRateLimit}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected rate-limited send retried once, got %d attempts", calls)
	}
}

func TestRefreshFailureShortCircuits(t *testing.T) {
	var slept []time.Duration
	inv := newTestInvoker(&slept)

	refreshErr := &mailerr.CredentialRefreshError{Account: "u1@x.com"}
	inv.Refresh = func(ctx context.Context) error { return refreshErr }

	calls := 0
	err := inv.Do(context.Background(), "list", true, func(ctx context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, refreshErr) {
		t.Fatalf("expected refresh error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected operation never attempted, got %d calls", calls)
	}
}

func TestPolicyFromDoubles(t *testing.T) {
	p := PolicyFrom(4, 500*time.Millisecond)
	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 4 * time.Second}
	if p.MaxRetries != 4 {
		t.Fatalf("expected 4 retries, got %d", p.MaxRetries)
	}
	for i, d := range want {
		if p.Delay(i) != d {
			t.Fatalf("delay %d: expected %v, got %v", i, d, p.Delay(i))
		}
	}
	// Past the sequence the last delay repeats.
	if p.Delay(10) != 4*time.Second {
		t.Fatalf("expected clamped delay, got %v", p.Delay(10))
	}
}
