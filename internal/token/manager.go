// Package token decides when an access token is stale and exchanges the
// refresh token for a fresh one.
package token

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"gmailcli/internal/creds"
	"gmailcli/internal/mailerr"
)

// RefreshWindow is how long before expiry a token is proactively
// refreshed, so a call started near the boundary does not expire mid-flight.
const RefreshWindow = 5 * time.Minute

type Manager struct {
	Repo *creds.Repository
	Now  func() time.Time

	// HTTPClient overrides the client used for the token exchange;
	// tests point it at a local server.
	HTTPClient *http.Client
}

func NewManager(repo *creds.Repository) *Manager {
	return &Manager{Repo: repo, Now: time.Now}
}

// IsExpired reports whether the access token is past its expiry. Tokens
// without a recorded expiry never count as expired; the provider rejects
// them and the refresh path recovers.
func (m *Manager) IsExpired(cred *creds.Credential) bool {
	if cred.Expiry == nil {
		return false
	}
	return !m.Now().Before(*cred.Expiry)
}

// NeedsRefresh reports whether the token is inside the proactive refresh
// window. A credential with no expiry and no access token (fresh refresh
// grant) also needs a refresh before first use.
func (m *Manager) NeedsRefresh(cred *creds.Credential) bool {
	if cred.Expiry == nil {
		return cred.AccessToken == ""
	}
	return !m.Now().Before(cred.Expiry.Add(-RefreshWindow))
}

// Refresh exchanges the stored refresh token at the account's token
// endpoint, updates cred in place and persists it. Any failure surfaces
// as CredentialRefreshError: a rejected refresh cannot succeed on retry,
// so the caller must re-authenticate.
func (m *Manager) Refresh(ctx context.Context, cred *creds.Credential) error {
	if cred.RefreshToken == "" {
		return &mailerr.CredentialRefreshError{Account: cred.Email}
	}

	conf := &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Scopes:       cred.Scopes,
		Endpoint:     oauth2.Endpoint{TokenURL: cred.TokenEndpoint},
	}

	if m.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.HTTPClient)
	}

	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		return &mailerr.CredentialRefreshError{Account: cred.Email, Err: err}
	}

	// Persist a clone first; the live credential only picks up the new
	// token once it is safely stored.
	updated := cred.Clone()
	updated.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		updated.RefreshToken = tok.RefreshToken
	}
	if tok.Expiry.IsZero() {
		updated.Expiry = nil
	} else {
		expiry := tok.Expiry
		updated.Expiry = &expiry
	}

	if err := m.Repo.Save(updated, updated.Email); err != nil {
		return err
	}
	*cred = *updated
	return nil
}

// Source adapts a credential to an oauth2.TokenSource that always serves
// the credential's current access token. The Resilient Invoker refreshes
// the credential in place before each call, so API clients built over
// this source pick up rotated tokens without being rebuilt.
func Source(cred *creds.Credential) oauth2.TokenSource {
	return credSource{cred: cred}
}

type credSource struct {
	cred *creds.Credential
}

func (s credSource) Token() (*oauth2.Token, error) {
	tok := &oauth2.Token{AccessToken: s.cred.AccessToken}
	if s.cred.Expiry != nil {
		tok.Expiry = *s.cred.Expiry
	}
	return tok, nil
}
