// Package auth orchestrates the account lifecycle: login persists a
// credential under its owning email, logout removes accounts, status and
// refresh inspect and renew the resolved account's token.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gmailcli/internal/account"
	"gmailcli/internal/creds"
	"gmailcli/internal/gmail"
	"gmailcli/internal/token"
)

type Service struct {
	Repo     *creds.Repository
	Tokens   *token.Manager
	Resolver *account.Resolver

	// NewClient builds a provider client over a credential, used to look
	// up the owning email after a fresh authorization.
	NewClient func(ctx context.Context, cred *creds.Credential) (gmail.Client, error)

	Log *slog.Logger
}

type LoginResult struct {
	Email     string
	IsDefault bool
	Migrated  bool
}

// Login stores an authorized credential. Any legacy single-account record
// is migrated first, so the new login lands in a settled registry. When
// the credential does not know its email yet, the provider profile
// supplies it.
func (s *Service) Login(ctx context.Context, cred *creds.Credential) (LoginResult, error) {
	migrated, err := s.Repo.MigrateLegacy()
	if err != nil {
		if s.Log != nil {
			s.Log.Warn("legacy credential migration failed", "error", err)
		}
	} else if migrated && s.Log != nil {
		s.Log.Info("migrated legacy credential to per-account storage")
	}

	email := cred.Email
	if email == "" {
		client, err := s.NewClient(ctx, cred)
		if err != nil {
			return LoginResult{}, err
		}
		profile, err := client.Profile(ctx)
		if err != nil {
			return LoginResult{}, fmt.Errorf("look up account identity: %w", err)
		}
		email = profile.EmailAddress
		cred.Email = email
	}

	if err := s.Repo.Save(cred, email); err != nil {
		return LoginResult{}, err
	}

	def, err := s.Repo.DefaultAccount()
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Email: email, IsDefault: def == email, Migrated: migrated}, nil
}

// Logout removes one account, the resolved account when email is empty,
// or every account when all is set. It returns the removed emails.
func (s *Service) Logout(email string, all bool) ([]string, error) {
	if all {
		return s.Repo.ClearAll()
	}

	target, err := s.Resolver.Resolve(email)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Delete(target); err != nil {
		return nil, err
	}
	return []string{target}, nil
}

type StatusInfo struct {
	Email        string
	IsDefault    bool
	Scopes       []string
	Expiry       *time.Time
	Expired      bool
	NeedsRefresh bool
}

// Status reports the resolved account's token state without touching the
// network.
func (s *Service) Status(explicit string) (*StatusInfo, error) {
	email, err := s.Resolver.Resolve(explicit)
	if err != nil {
		return nil, err
	}
	cred, err := s.Repo.Load(email)
	if err != nil {
		return nil, err
	}

	def, err := s.Repo.DefaultAccount()
	if err != nil {
		return nil, err
	}

	return &StatusInfo{
		Email:        email,
		IsDefault:    def == email,
		Scopes:       cred.Scopes,
		Expiry:       cred.Expiry,
		Expired:      s.Tokens.IsExpired(cred),
		NeedsRefresh: s.Tokens.NeedsRefresh(cred),
	}, nil
}

// Refresh forces a token exchange for the resolved account and returns
// the renewed credential.
func (s *Service) Refresh(ctx context.Context, explicit string) (*creds.Credential, error) {
	email, err := s.Resolver.Resolve(explicit)
	if err != nil {
		return nil, err
	}
	cred, err := s.Repo.Load(email)
	if err != nil {
		return nil, err
	}
	if err := s.Tokens.Refresh(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}
