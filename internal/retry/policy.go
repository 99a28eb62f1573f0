package retry

import "time"

// Class is the retry classification of a failed remote call.
type Class int

const (
	// ClassNone marks errors outside the provider taxonomy; they are
	// surfaced as-is without retry.
	ClassNone Class = iota
	// ClassRateLimit means the provider rejected the call before doing
	// any work; safe to retry after backing off, even for sends.
	ClassRateLimit
	// ClassTransient means the transport failed and the server-side
	// outcome is unknown.
	ClassTransient
	ClassAuth
	ClassNotFound
	ClassInvalid
)

func (c Class) Retryable() bool {
	return c == ClassRateLimit || c == ClassTransient
}

func (c Class) String() string {
	switch c {
	case ClassRateLimit:
		return "rate-limit"
	case ClassTransient:
		return "transient"
	case ClassAuth:
		return "auth"
	case ClassNotFound:
		return "not-found"
	case ClassInvalid:
		return "invalid"
	default:
		return "none"
	}
}

// Classifier maps a remote-call error to its retry class.
type Classifier func(error) Class

// Policy bounds the retry loop: MaxRetries retries after the initial
// attempt, sleeping Delays[i] before retry i (the last delay repeats if
// MaxRetries exceeds the sequence).
type Policy struct {
	MaxRetries int
	Delays     []time.Duration
}

// DefaultPolicy retries three times with 1s/2s/4s backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		Delays:     []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// PolicyFrom derives a doubling delay sequence from a base delay.
func PolicyFrom(maxRetries int, baseDelay time.Duration) Policy {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	delays := make([]time.Duration, maxRetries)
	d := baseDelay
	for i := range delays {
		delays[i] = d
		d *= 2
	}
	return Policy{MaxRetries: maxRetries, Delays: delays}
}

// Delay returns the sleep before the given zero-based retry.
func (p Policy) Delay(retry int) time.Duration {
	if len(p.Delays) == 0 {
		return time.Second
	}
	if retry >= len(p.Delays) {
		return p.Delays[len(p.Delays)-1]
	}
	return p.Delays[retry]
}
