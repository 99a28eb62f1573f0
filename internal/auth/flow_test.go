package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCallbackHandlerDeliversCode(t *testing.T) {
	results := make(chan callbackResult, 1)
	h := callbackHandler("s1", results)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?state=s1&code=c1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	res := <-results
	if res.err != nil || res.code != "c1" {
		t.Fatalf("result = %+v", res)
	}
}

func TestCallbackHandlerIgnoresRepeatHits(t *testing.T) {
	results := make(chan callbackResult, 1)
	h := callbackHandler("s1", results)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?state=s1&code=c1", nil))
	// A reload of the callback page must return, not wedge its handler
	// goroutine on the full channel.
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?state=s1&code=c2", nil))

	res := <-results
	if res.code != "c1" {
		t.Fatalf("expected first code delivered, got %+v", res)
	}
	select {
	case extra := <-results:
		t.Fatalf("unexpected second result %+v", extra)
	default:
	}
}

func TestCallbackHandlerRejectsStateMismatch(t *testing.T) {
	results := make(chan callbackResult, 1)
	h := callbackHandler("s1", results)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?state=forged&code=c1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}

	res := <-results
	if res.err == nil {
		t.Fatalf("expected state mismatch error")
	}
}
