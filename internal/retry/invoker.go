// Package retry wraps every remote call in bounded exponential backoff
// with uniform error classification.
package retry

import (
	"context"
	"log/slog"
	"time"

	"gmailcli/internal/mailerr"
)

// Invoker executes remote operations under a retry policy. Before each
// top-level call it gives the token lifecycle a chance to refresh the
// active credential; a refresh failure short-circuits the call.
type Invoker struct {
	Policy   Policy
	Classify Classifier

	// Refresh runs once before the operation's first attempt; nil skips
	// the refresh step.
	Refresh func(ctx context.Context) error

	// Sleep is swapped for a recorder in tests.
	Sleep func(d time.Duration)

	Log *slog.Logger
}

func NewInvoker(policy Policy, classify Classifier, log *slog.Logger) *Invoker {
	return &Invoker{
		Policy:   policy,
		Classify: classify,
		Sleep:    time.Sleep,
		Log:      log,
	}
}

// Do runs op, retrying rate-limited and transient failures up to the
// policy's budget. Fatal classifications (auth, not-found, validation)
// propagate immediately. Operations that are not idempotent are never
// retried after a transient failure, because the first attempt's outcome
// is unknown; a rate-limit rejection is known not to have executed and
// stays retryable either way.
func (inv *Invoker) Do(ctx context.Context, name string, idempotent bool, op func(ctx context.Context) error) error {
	if inv.Refresh != nil {
		if err := inv.Refresh(ctx); err != nil {
			return err
		}
	}

	sleep := inv.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	var lastClass Class
	attempts := 0

	for retryN := 0; ; retryN++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}

		class := inv.Classify(err)
		if !class.Retryable() {
			return err
		}
		if class == ClassTransient && !idempotent {
			return &mailerr.TransientFailureError{Attempts: attempts, Err: err}
		}

		lastErr = err
		lastClass = class
		if retryN >= inv.Policy.MaxRetries {
			break
		}

		delay := inv.Policy.Delay(retryN)
		if inv.Log != nil {
			inv.Log.Debug("retrying remote call", "op", name, "class", class.String(), "attempt", attempts, "delay", delay)
		}
		sleep(delay)
	}

	if lastClass == ClassRateLimit {
		return &mailerr.RateLimitExceededError{Attempts: attempts, Err: lastErr}
	}
	return &mailerr.TransientFailureError{Attempts: attempts, Err: lastErr}
}
