package creds

import (
	"encoding/json"
	"fmt"
	"time"
)

// Credential is one account's stored OAuth material. The JSON field names
// match the records written by earlier releases, so existing keyring
// entries keep loading.
type Credential struct {
	Email         string     `json:"-"`
	AccessToken   string     `json:"token"`
	RefreshToken  string     `json:"refresh_token"`
	TokenEndpoint string     `json:"token_uri"`
	ClientID      string     `json:"client_id"`
	ClientSecret  string     `json:"client_secret"`
	Scopes        []string   `json:"scopes"`
	Expiry        *time.Time `json:"expiry"`
}

func (c *Credential) Clone() *Credential {
	out := *c
	out.Scopes = append([]string(nil), c.Scopes...)
	if c.Expiry != nil {
		t := *c.Expiry
		out.Expiry = &t
	}
	return &out
}

func marshalCredential(c *Credential) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode credential: %w", err)
	}
	return data, nil
}

func unmarshalCredential(data []byte, email string) (*Credential, error) {
	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	if c.Scopes == nil {
		c.Scopes = []string{}
	}
	c.Email = email
	return &c, nil
}
