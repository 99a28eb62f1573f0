package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"gmailcli/internal/creds"
	"gmailcli/internal/gmail"
)

// FlowOptions configures an interactive authorization.
type FlowOptions struct {
	ClientID     string
	ClientSecret string

	// Scopes defaults to the client's required scopes.
	Scopes []string

	// Out receives the authorization URL for the user to open.
	Out io.Writer

	// Timeout bounds the wait for the browser callback.
	Timeout time.Duration
}

type callbackResult struct {
	code string
	err  error
}

// RunLoopbackFlow walks the user through browser authorization: it
// serves a one-shot callback on a loopback port, prints the
// authorization URL, waits for the redirect and exchanges the code. The
// returned credential carries no email; login resolves that from the
// profile.
func RunLoopbackFlow(ctx context.Context, opts FlowOptions) (*creds.Credential, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, errors.New("oauth client id and secret are required; set them in the config file first")
	}

	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = gmail.Scopes
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("open loopback listener: %w", err)
	}
	defer listener.Close()

	conf := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
		RedirectURL:  fmt.Sprintf("http://%s/", listener.Addr().String()),
	}

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	results := make(chan callbackResult, 1)
	server := &http.Server{Handler: callbackHandler(state, results)}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- callbackResult{err: err}:
			default:
			}
		}
	}()
	defer server.Close()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Open this URL in your browser to authorize:\n\n  %s\n\nWaiting for authorization...\n", authURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var code string
	select {
	case <-waitCtx.Done():
		return nil, fmt.Errorf("authorization timed out: %w", waitCtx.Err())
	case result := <-results:
		if result.err != nil {
			return nil, result.err
		}
		code = result.code
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	if tok.RefreshToken == "" {
		return nil, errors.New("authorization response carried no refresh token; revoke access for this app and retry")
	}

	cred := &creds.Credential{
		AccessToken:   tok.AccessToken,
		RefreshToken:  tok.RefreshToken,
		TokenEndpoint: google.Endpoint.TokenURL,
		ClientID:      opts.ClientID,
		ClientSecret:  opts.ClientSecret,
		Scopes:        scopes,
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		cred.Expiry = &expiry
	}
	return cred, nil
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	// Only the first result matters; later hits (reloads, stray
	// requests) must not block their handler goroutines.
	deliver := func(r callbackResult) {
		select {
		case results <- r:
		default:
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("authorization state mismatch")})
			return
		}
		if errParam := query.Get("error"); errParam != "" {
			http.Error(w, "authorization denied", http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", errParam)})
			return
		}
		code := query.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("authorization response missing code")})
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this window.")
		deliver(callbackResult{code: code})
	})
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
