package model

import "time"

// Credential holds one provider's OAuth tokens in plaintext. Stores only ever
// see the sealed form.
type Credential struct {
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	RefreshToken *string    `json:"-"`
	AccountID    *string    `json:"account_id,omitempty"`
	Provider     Provider   `json:"provider"`
	AccessToken  string     `json:"-"`
	Scopes       []string   `json:"scopes,omitempty"`
}

// SealedCredential is the at-rest form: token fields are ciphertext.
type SealedCredential struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ExpiresAt    *time.Time
	AccountID    *string
	Provider     Provider
	AccessToken  []byte
	RefreshToken []byte
	Scopes       []string
}
