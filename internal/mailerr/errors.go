// Package mailerr defines the error taxonomy shared by every layer of
// the CLI. Each error carries a machine-readable kind and a message that
// tells the operator what to do next.
package mailerr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindAccountNotFound     Kind = "account_not_found"
	KindNoAccountConfigured Kind = "no_account_configured"
	KindCredentialRefresh   Kind = "credential_refresh"
	KindRateLimitExceeded   Kind = "rate_limit_exceeded"
	KindTransientFailure    Kind = "transient_failure"
	KindDraftNotFound       Kind = "draft_not_found"
	KindInvalidMessage      Kind = "invalid_message"
	KindAttachmentTooLarge  Kind = "attachment_too_large"
	KindValidation          Kind = "validation"
)

type kinder interface {
	Kind() Kind
}

// KindOf extracts the taxonomy kind from an error chain, if any.
func KindOf(err error) (Kind, bool) {
	var k kinder
	if errors.As(err, &k) {
		return k.Kind(), true
	}
	return "", false
}

type AccountNotFoundError struct {
	Requested string
	Available []string
}

func (e *AccountNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("account %q not found; no accounts are authenticated, run 'gmail-cli auth login'", e.Requested)
	}
	return fmt.Sprintf("account %q not found; available accounts: %s", e.Requested, strings.Join(e.Available, ", "))
}

func (e *AccountNotFoundError) Kind() Kind { return KindAccountNotFound }

type NoAccountConfiguredError struct{}

func (e *NoAccountConfiguredError) Error() string {
	return "no account configured; run 'gmail-cli auth login' first"
}

func (e *NoAccountConfiguredError) Kind() Kind { return KindNoAccountConfigured }

// CredentialRefreshError means the provider rejected the refresh token
// (or the exchange could not complete). Re-authentication is the only
// recovery; repeating the exchange cannot succeed, so it is never retried.
type CredentialRefreshError struct {
	Account string
	Err     error
}

func (e *CredentialRefreshError) Error() string {
	if e.Account != "" {
		return fmt.Sprintf("token for %q expired or revoked; run 'gmail-cli auth login' to re-authenticate", e.Account)
	}
	return "token expired or revoked; run 'gmail-cli auth login' to re-authenticate"
}

func (e *CredentialRefreshError) Kind() Kind { return KindCredentialRefresh }
func (e *CredentialRefreshError) Unwrap() error { return e.Err }

type RateLimitExceededError struct {
	Attempts int
	Err      error
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("rate limited by the provider after %d attempts; wait a moment and retry", e.Attempts)
}

func (e *RateLimitExceededError) Kind() Kind { return KindRateLimitExceeded }
func (e *RateLimitExceededError) Unwrap() error { return e.Err }

type TransientFailureError struct {
	Attempts int
	Err      error
}

func (e *TransientFailureError) Error() string {
	if e.Attempts == 1 {
		return fmt.Sprintf("transient failure, outcome unknown: %v; verify before retrying", e.Err)
	}
	return fmt.Sprintf("transient failure after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientFailureError) Kind() Kind { return KindTransientFailure }
func (e *TransientFailureError) Unwrap() error { return e.Err }

type DraftNotFoundError struct {
	DraftID string
}

func (e *DraftNotFoundError) Error() string {
	return fmt.Sprintf("draft %q not found; run 'gmail-cli draft list' to see existing drafts", e.DraftID)
}

func (e *DraftNotFoundError) Kind() Kind { return KindDraftNotFound }

type InvalidMessageError struct {
	Reason string
	Err    error
}

func (e *InvalidMessageError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid message: %s", e.Reason)
	}
	return fmt.Sprintf("invalid message: %v", e.Err)
}

func (e *InvalidMessageError) Kind() Kind { return KindInvalidMessage }
func (e *InvalidMessageError) Unwrap() error { return e.Err }

type AttachmentTooLargeError struct {
	Filename string
	Size     int64
	Limit    int64
}

func (e *AttachmentTooLargeError) Error() string {
	return fmt.Sprintf("attachment %q is %d bytes, exceeding the %d byte limit", e.Filename, e.Size, e.Limit)
}

func (e *AttachmentTooLargeError) Kind() Kind { return KindAttachmentTooLarge }

type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Kind() Kind { return KindValidation }
