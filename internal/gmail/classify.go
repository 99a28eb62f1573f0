package gmail

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"

	"gmailcli/internal/retry"
)

// Classify maps provider and transport errors onto the retry taxonomy.
// Rate limits and 5xx responses are retryable; auth, not-found and
// validation responses are fatal. Transport-level failures count as
// transient: the server-side outcome is unknown.
func Classify(err error) retry.Class {
	if err == nil {
		return retry.ClassNone
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429:
			return retry.ClassRateLimit
		case 403:
			if isRateLimitReason(apiErr) {
				return retry.ClassRateLimit
			}
			return retry.ClassAuth
		case 401:
			return retry.ClassAuth
		case 404:
			return retry.ClassNotFound
		case 400, 422:
			return retry.ClassInvalid
		case 408, 500, 502, 503, 504:
			return retry.ClassTransient
		default:
			return retry.ClassInvalid
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return retry.ClassTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return retry.ClassTransient
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return retry.ClassTransient
	}

	return retry.ClassNone
}

// The provider reports quota exhaustion as 403 with a rate-limit reason
// rather than 429.
func isRateLimitReason(apiErr *googleapi.Error) bool {
	for _, e := range apiErr.Errors {
		switch e.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded":
			return true
		}
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "rate limit")
}
