package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"

	"gmailcli/internal/account"
	"gmailcli/internal/config"
	"gmailcli/internal/creds"
	"gmailcli/internal/draft"
	"gmailcli/internal/gmail"
	"gmailcli/internal/retry"
	"gmailcli/internal/secrets"
	"gmailcli/internal/token"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// app wires config, the secret store and the credential layers behind
// every command. Commands build one per invocation.
type app struct {
	cfg      config.Config
	repo     *creds.Repository
	resolver *account.Resolver
	tokens   *token.Manager
	log      *slog.Logger

	// newClient is swapped for a fake in tests.
	newClient func(ctx context.Context, ts oauth2.TokenSource) (gmail.Client, error)
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	store, err := secrets.Open()
	if err != nil {
		return nil, err
	}

	repo := creds.NewRepository(store)
	a := &app{
		cfg:       cfg,
		repo:      repo,
		resolver:  account.NewResolver(repo),
		tokens:    token.NewManager(repo),
		log:       logger,
		newClient: gmail.NewAPIClient,
	}
	repo.Identity = a.credentialIdentity
	return a, nil
}

// credentialIdentity asks the provider which account owns a credential.
// Only legacy record migration needs it.
func (a *app) credentialIdentity(cred *creds.Credential) (string, error) {
	ctx := context.Background()
	client, err := a.newClient(ctx, token.Source(cred))
	if err != nil {
		return "", err
	}
	profile, err := client.Profile(ctx)
	if err != nil {
		return "", fmt.Errorf("look up credential identity: %w", err)
	}
	return profile.EmailAddress, nil
}

// session is everything a provider-facing command needs: the resolved
// account, its live credential, a client over it, and the invoker whose
// refresh hook rotates the credential in place before each call.
type session struct {
	account string
	cred    *creds.Credential
	client  gmail.Client
	invoker *retry.Invoker
}

func (a *app) session(ctx context.Context, explicitAccount string) (*session, error) {
	if _, err := a.repo.MigrateLegacy(); err != nil {
		a.log.Warn("legacy credential migration failed", "error", err)
	}

	email, err := a.resolver.Resolve(explicitAccount)
	if err != nil {
		return nil, err
	}
	cred, err := a.repo.Load(email)
	if err != nil {
		return nil, err
	}

	client, err := a.newClient(ctx, token.Source(cred))
	if err != nil {
		return nil, err
	}

	inv := retry.NewInvoker(retry.PolicyFrom(a.cfg.Retry.MaxRetries, a.cfg.Retry.BaseDelay), gmail.Classify, a.log)
	inv.Refresh = func(ctx context.Context) error {
		if !a.tokens.NeedsRefresh(cred) {
			return nil
		}
		return a.tokens.Refresh(ctx, cred)
	}

	return &session{account: email, cred: cred, client: client, invoker: inv}, nil
}

func (a *app) draftManager(s *session) *draft.Manager {
	return draft.NewManager(s.client, s.invoker, a.log)
}

func attachmentLimit(cfg config.Config) int64 {
	if cfg.Defaults.AttachmentLimitMB <= 0 {
		return 0
	}
	return cfg.Defaults.AttachmentLimitMB << 20
}
