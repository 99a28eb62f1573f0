package creds

import (
	"encoding/json"
	"errors"
	"fmt"

	"gmailcli/internal/mailerr"
	"gmailcli/internal/secrets"
)

const (
	accountsListKey   = "accounts_list"
	defaultAccountKey = "default_account"
	legacyKey         = "oauth_credentials" // pre-multi-account single record
)

// ErrCredentialNotFound is returned by Load when no record exists for the
// requested account.
var ErrCredentialNotFound = errors.New("credential not found")

// IdentityFunc resolves the email that owns a credential; legacy records
// predate per-account keys and carry no email of their own.
type IdentityFunc func(cred *Credential) (string, error)

// Repository owns the accounts registry, the default-account pointer and
// the per-account credential records inside the secret store. All state
// lives in the store; the repository itself is stateless between calls.
type Repository struct {
	Store    secrets.Store
	Identity IdentityFunc
}

func NewRepository(store secrets.Store) *Repository {
	return &Repository{Store: store}
}

func accountKey(email string) string {
	return "oauth_" + email
}

// ListAccounts returns the registered account emails in first-seen order.
func (r *Repository) ListAccounts() ([]string, error) {
	data, err := r.Store.Get(accountsListKey)
	if err != nil {
		if errors.Is(err, secrets.ErrSecretNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	var accounts []string
	if err := json.Unmarshal(data, &accounts); err != nil {
		// A corrupt registry is treated as empty rather than bricking
		// every command; the next Save rewrites it.
		return []string{}, nil
	}
	return accounts, nil
}

func (r *Repository) writeAccounts(accounts []string) error {
	data, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("encode accounts list: %w", err)
	}
	return r.Store.Set(accountsListKey, data)
}

func (r *Repository) Load(email string) (*Credential, error) {
	data, err := r.Store.Get(accountKey(email))
	if err != nil {
		if errors.Is(err, secrets.ErrSecretNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCredentialNotFound, email)
		}
		return nil, err
	}
	return unmarshalCredential(data, email)
}

// Save writes the per-account record, registers the email if it is new,
// and makes it the default when the registry was previously empty.
func (r *Repository) Save(cred *Credential, email string) error {
	data, err := marshalCredential(cred)
	if err != nil {
		return err
	}
	if err := r.Store.Set(accountKey(email), data); err != nil {
		return err
	}

	accounts, err := r.ListAccounts()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if a == email {
			return nil
		}
	}

	wasEmpty := len(accounts) == 0
	if err := r.writeAccounts(append(accounts, email)); err != nil {
		return err
	}
	if wasEmpty {
		return r.Store.Set(defaultAccountKey, []byte(email))
	}
	return nil
}

// Delete removes the account's record and registry entry. When the
// deleted account was the default, the first remaining account becomes
// the default, or the pointer is cleared if none remain.
func (r *Repository) Delete(email string) error {
	if err := r.Store.Delete(accountKey(email)); err != nil {
		return err
	}

	accounts, err := r.ListAccounts()
	if err != nil {
		return err
	}
	remaining := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a != email {
			remaining = append(remaining, a)
		}
	}
	if len(remaining) != len(accounts) {
		if err := r.writeAccounts(remaining); err != nil {
			return err
		}
	}

	def, err := r.DefaultAccount()
	if err != nil {
		return err
	}
	if def != email {
		return nil
	}
	if len(remaining) > 0 {
		return r.Store.Set(defaultAccountKey, []byte(remaining[0]))
	}
	return r.Store.Delete(defaultAccountKey)
}

// DefaultAccount returns the configured default email, or "" if unset.
func (r *Repository) DefaultAccount() (string, error) {
	data, err := r.Store.Get(defaultAccountKey)
	if err != nil {
		if errors.Is(err, secrets.ErrSecretNotFound) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

func (r *Repository) SetDefaultAccount(email string) error {
	accounts, err := r.ListAccounts()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if a == email {
			return r.Store.Set(defaultAccountKey, []byte(email))
		}
	}
	return &mailerr.AccountNotFoundError{Requested: email, Available: accounts}
}

// MigrateLegacy moves a pre-multi-account record under its owning email.
// It is idempotent: once the registry is populated (or no legacy record
// exists) it only cleans up and reports false. Migration is a local data
// move; the single identity lookup is the injected Identity func.
func (r *Repository) MigrateLegacy() (bool, error) {
	data, err := r.Store.Get(legacyKey)
	if err != nil {
		if errors.Is(err, secrets.ErrSecretNotFound) {
			return false, nil
		}
		return false, err
	}

	accounts, err := r.ListAccounts()
	if err != nil {
		return false, err
	}
	if len(accounts) > 0 {
		// Already migrated; drop the stale legacy record.
		return false, r.Store.Delete(legacyKey)
	}

	cred, err := unmarshalCredential(data, "")
	if err != nil {
		return false, err
	}
	if r.Identity == nil {
		return false, errors.New("legacy credential found but no identity lookup configured")
	}
	email, err := r.Identity(cred)
	if err != nil {
		return false, fmt.Errorf("resolve legacy account identity: %w", err)
	}
	cred.Email = email

	if err := r.Save(cred, email); err != nil {
		return false, err
	}
	if err := r.Store.Delete(legacyKey); err != nil {
		return false, err
	}
	return true, nil
}

// ClearAll deletes every account record, the registry and the default
// pointer. Returns the emails that were registered.
func (r *Repository) ClearAll() ([]string, error) {
	accounts, err := r.ListAccounts()
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if err := r.Store.Delete(accountKey(a)); err != nil {
			return nil, err
		}
	}
	if err := r.Store.Delete(accountsListKey); err != nil {
		return nil, err
	}
	if err := r.Store.Delete(defaultAccountKey); err != nil {
		return nil, err
	}
	return accounts, nil
}
