// Package account selects the single account a command invocation acts
// on. The priority chain decides the blast radius of a mistaken account
// selection, so callers must never reorder it.
package account

import (
	"os"

	"gmailcli/internal/creds"
	"gmailcli/internal/mailerr"
)

// Env overrides the account for one shell session.
const Env = "GMAIL_ACCOUNT"

type Resolver struct {
	Repo      *creds.Repository
	LookupEnv func(key string) (string, bool)
}

func NewResolver(repo *creds.Repository) *Resolver {
	return &Resolver{Repo: repo, LookupEnv: os.LookupEnv}
}

// Resolve picks the account for this invocation, first match wins:
//
//  1. explicit, when non-empty
//  2. the GMAIL_ACCOUNT environment variable, when set and non-empty
//  3. the configured default account
//  4. the first account in registration order
//
// An explicit or environment value naming an unregistered account fails
// with AccountNotFound; an empty registry fails with NoAccountConfigured.
func (r *Resolver) Resolve(explicit string) (string, error) {
	accounts, err := r.Repo.ListAccounts()
	if err != nil {
		return "", err
	}

	if explicit != "" {
		if !contains(accounts, explicit) {
			return "", &mailerr.AccountNotFoundError{Requested: explicit, Available: accounts}
		}
		return explicit, nil
	}

	if env, ok := r.LookupEnv(Env); ok && env != "" {
		if !contains(accounts, env) {
			return "", &mailerr.AccountNotFoundError{Requested: env, Available: accounts}
		}
		return env, nil
	}

	def, err := r.Repo.DefaultAccount()
	if err != nil {
		return "", err
	}
	if def != "" && contains(accounts, def) {
		return def, nil
	}

	if len(accounts) > 0 {
		return accounts[0], nil
	}

	return "", &mailerr.NoAccountConfiguredError{}
}

func contains(accounts []string, email string) bool {
	for _, a := range accounts {
		if a == email {
			return true
		}
	}
	return false
}
