package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"gmailcli/internal/account"
	"gmailcli/internal/creds"
	"gmailcli/internal/gmail"
	"gmailcli/internal/mailerr"
	"gmailcli/internal/secrets"
	"gmailcli/internal/token"
)

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (s *memStore) Get(key string) ([]byte, error) {
	v, ok := s.data[key]
	if !ok {
		return nil, secrets.ErrSecretNotFound
	}
	return v, nil
}

func (s *memStore) Set(key string, value []byte) error {
	s.data[key] = value
	return nil
}

func (s *memStore) Delete(key string) error {
	delete(s.data, key)
	return nil
}

// profileClient implements gmail.Client; only Profile is wired.
type profileClient struct {
	gmail.Client
	email string
	err   error
}

func (c *profileClient) Profile(ctx context.Context) (gmail.Profile, error) {
	if c.err != nil {
		return gmail.Profile{}, c.err
	}
	return gmail.Profile{EmailAddress: c.email}, nil
}

func newTestService(store *memStore, profileEmail string) *Service {
	repo := creds.NewRepository(store)
	resolver := &account.Resolver{
		Repo:      repo,
		LookupEnv: func(string) (string, bool) { return "", false },
	}
	return &Service{
		Repo:     repo,
		Tokens:   token.NewManager(repo),
		Resolver: resolver,
		NewClient: func(ctx context.Context, cred *creds.Credential) (gmail.Client, error) {
			return &profileClient{email: profileEmail}, nil
		},
	}
}

func freshCredential() *creds.Credential {
	expiry := time.Now().Add(time.Hour)
	return &creds.Credential{
		AccessToken:   "at",
		RefreshToken:  "rt",
		TokenEndpoint: "https://oauth2.googleapis.com/token",
		ClientID:      "cid",
		ClientSecret:  "secret",
		Scopes:        []string{"scope"},
		Expiry:        &expiry,
	}
}

func TestLoginResolvesIdentityAndSetsFirstDefault(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, "u1@example.com")

	result, err := svc.Login(context.Background(), freshCredential())
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Email != "u1@example.com" {
		t.Fatalf("email = %q", result.Email)
	}
	if !result.IsDefault {
		t.Fatal("first login should become the default account")
	}

	email, err := svc.Resolver.Resolve("")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if email != "u1@example.com" {
		t.Fatalf("resolved = %q", email)
	}
}

func TestSecondLoginKeepsExistingDefault(t *testing.T) {
	store := newMemStore()

	svc := newTestService(store, "u1@example.com")
	if _, err := svc.Login(context.Background(), freshCredential()); err != nil {
		t.Fatalf("login u1: %v", err)
	}

	svc.NewClient = func(ctx context.Context, cred *creds.Credential) (gmail.Client, error) {
		return &profileClient{email: "u2@example.com"}, nil
	}
	result, err := svc.Login(context.Background(), freshCredential())
	if err != nil {
		t.Fatalf("login u2: %v", err)
	}
	if result.IsDefault {
		t.Fatal("second login must not steal the default")
	}

	if err := svc.Repo.SetDefaultAccount("u2@example.com"); err != nil {
		t.Fatalf("set default: %v", err)
	}
	email, err := svc.Resolver.Resolve("")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if email != "u2@example.com" {
		t.Fatalf("resolved = %q", email)
	}
}

func TestLoginMigratesLegacyRecord(t *testing.T) {
	store := newMemStore()
	store.data["oauth_credentials"] = []byte(`{"token":"legacy-at","refresh_token":"legacy-rt","token_uri":"https://oauth2.googleapis.com/token","client_id":"cid","client_secret":"secret","scopes":[],"expiry":null}`)

	svc := newTestService(store, "new@example.com")
	svc.Repo.Identity = func(cred *creds.Credential) (string, error) {
		return "legacy@example.com", nil
	}

	result, err := svc.Login(context.Background(), freshCredential())
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !result.Migrated {
		t.Fatal("expected legacy record to migrate")
	}

	accounts, err := svc.Repo.ListAccounts()
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 2 || accounts[0] != "legacy@example.com" || accounts[1] != "new@example.com" {
		t.Fatalf("accounts = %v", accounts)
	}
	if _, ok := store.data["oauth_credentials"]; ok {
		t.Fatal("legacy record should be deleted after migration")
	}
}

func TestLogoutSingleReassignsDefault(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, "u1@example.com")
	if _, err := svc.Login(context.Background(), freshCredential()); err != nil {
		t.Fatalf("login u1: %v", err)
	}
	svc.NewClient = func(ctx context.Context, cred *creds.Credential) (gmail.Client, error) {
		return &profileClient{email: "u2@example.com"}, nil
	}
	if _, err := svc.Login(context.Background(), freshCredential()); err != nil {
		t.Fatalf("login u2: %v", err)
	}

	removed, err := svc.Logout("u1@example.com", false)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(removed) != 1 || removed[0] != "u1@example.com" {
		t.Fatalf("removed = %v", removed)
	}

	email, err := svc.Resolver.Resolve("")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if email != "u2@example.com" {
		t.Fatalf("default after logout = %q", email)
	}
}

func TestLogoutAllClearsEverything(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, "u1@example.com")
	if _, err := svc.Login(context.Background(), freshCredential()); err != nil {
		t.Fatalf("login: %v", err)
	}

	removed, err := svc.Logout("", true)
	if err != nil {
		t.Fatalf("logout all: %v", err)
	}
	if len(removed) != 1 {
		t.Fatalf("removed = %v", removed)
	}

	_, err = svc.Resolver.Resolve("")
	var noAccount *mailerr.NoAccountConfiguredError
	if !errors.As(err, &noAccount) {
		t.Fatalf("expected no account configured, got %v", err)
	}
}

func TestLogoutUnknownAccount(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, "u1@example.com")
	if _, err := svc.Login(context.Background(), freshCredential()); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err := svc.Logout("nobody@example.com", false)
	var notFound *mailerr.AccountNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected account not found, got %v", err)
	}
}

func TestStatusReportsTokenState(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, "u1@example.com")

	cred := freshCredential()
	expired := time.Now().Add(-time.Hour)
	cred.Expiry = &expired
	if _, err := svc.Login(context.Background(), cred); err != nil {
		t.Fatalf("login: %v", err)
	}

	info, err := svc.Status("")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if info.Email != "u1@example.com" || !info.IsDefault {
		t.Fatalf("status = %+v", info)
	}
	if !info.Expired || !info.NeedsRefresh {
		t.Fatalf("expired token should report expired and needing refresh: %+v", info)
	}
}
