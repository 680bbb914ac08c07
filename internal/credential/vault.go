// Package credential stores provider OAuth tokens sealed at rest and keeps an
// immutable snapshot of which providers are connected.
package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"basegraph.app/herald/common/logger"
	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/store"
)

// ProviderSet is never mutated after publication.
type ProviderSet map[model.Provider]struct{}

func (s ProviderSet) Has(p model.Provider) bool {
	_, ok := s[p]
	return ok
}

type Vault struct {
	store     store.CredentialStore
	sealer    *Sealer
	now       func() time.Time
	connected atomic.Pointer[ProviderSet]
}

func NewVault(credentials store.CredentialStore, sealer *Sealer) *Vault {
	v := &Vault{store: credentials, sealer: sealer, now: time.Now}
	empty := ProviderSet{}
	v.connected.Store(&empty)
	return v
}

// WithClock overrides the time source; used by tests.
func (v *Vault) WithClock(now func() time.Time) *Vault {
	v.now = now
	return v
}

// Load publishes the provider set found in the store.
func (v *Vault) Load(ctx context.Context) error {
	providers, err := v.store.ListProviders(ctx)
	if err != nil {
		return fmt.Errorf("listing credential providers: %w", err)
	}
	set := make(ProviderSet, len(providers))
	for _, p := range providers {
		set[p] = struct{}{}
	}
	v.connected.Store(&set)
	return nil
}

// Sync reloads the snapshot every interval until ctx is done, so changes
// written by another process become visible here. A failed reload keeps the
// previous snapshot.
func (v *Vault) Sync(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "herald.credential.vault"})
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := v.Load(ctx); err != nil {
				slog.WarnContext(ctx, "reloading connected providers failed", "error", err)
			}
		}
	}
}

// Connected returns the current snapshot. Callers must not modify it.
func (v *Vault) Connected() ProviderSet {
	return *v.connected.Load()
}

func (v *Vault) Store(ctx context.Context, cred model.Credential) error {
	access, err := v.sealer.Seal([]byte(cred.AccessToken))
	if err != nil {
		return fmt.Errorf("sealing access token: %w", err)
	}
	sealed := &model.SealedCredential{
		Provider:    cred.Provider,
		AccessToken: access,
		ExpiresAt:   cred.ExpiresAt,
		AccountID:   cred.AccountID,
		Scopes:      cred.Scopes,
	}
	if cred.RefreshToken != nil {
		refresh, err := v.sealer.Seal([]byte(*cred.RefreshToken))
		if err != nil {
			return fmt.Errorf("sealing refresh token: %w", err)
		}
		sealed.RefreshToken = refresh
	}

	if _, err := v.store.Upsert(ctx, sealed); err != nil {
		return fmt.Errorf("storing credential for %s: %w", cred.Provider, err)
	}

	v.publish(func(set ProviderSet) { set[cred.Provider] = struct{}{} })
	slog.InfoContext(ctx, "credential stored", "provider", cred.Provider)
	return nil
}

// Get returns store.ErrNotFound when the provider has no credential.
func (v *Vault) Get(ctx context.Context, provider model.Provider) (*model.Credential, error) {
	sealed, err := v.store.Get(ctx, provider)
	if err != nil {
		return nil, err
	}

	access, err := v.sealer.Open(sealed.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("opening access token for %s: %w", provider, err)
	}
	cred := &model.Credential{
		Provider:    sealed.Provider,
		AccessToken: string(access),
		ExpiresAt:   sealed.ExpiresAt,
		AccountID:   sealed.AccountID,
		Scopes:      sealed.Scopes,
		CreatedAt:   sealed.CreatedAt,
		UpdatedAt:   sealed.UpdatedAt,
	}
	if len(sealed.RefreshToken) > 0 {
		refresh, err := v.sealer.Open(sealed.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("opening refresh token for %s: %w", provider, err)
		}
		r := string(refresh)
		cred.RefreshToken = &r
	}
	return cred, nil
}

// IsValid reports whether a token exists and has not expired. A credential
// without an expiry never expires.
func (v *Vault) IsValid(ctx context.Context, provider model.Provider) bool {
	cred, err := v.Get(ctx, provider)
	if err != nil {
		v.logLookupError(ctx, provider, err)
		return false
	}
	return cred.ExpiresAt == nil || v.now().Before(*cred.ExpiresAt)
}

// NeedsRefresh reports whether the token expires within lead and can be
// refreshed.
func (v *Vault) NeedsRefresh(ctx context.Context, provider model.Provider, lead time.Duration) bool {
	cred, err := v.Get(ctx, provider)
	if err != nil {
		v.logLookupError(ctx, provider, err)
		return false
	}
	return ExpiresWithin(cred, v.now(), lead)
}

func (v *Vault) Delete(ctx context.Context, provider model.Provider) error {
	if err := v.store.Delete(ctx, provider); err != nil {
		return fmt.Errorf("deleting credential for %s: %w", provider, err)
	}
	v.publish(func(set ProviderSet) { delete(set, provider) })
	slog.InfoContext(ctx, "credential deleted", "provider", provider)
	return nil
}

func (v *Vault) ListProviders(ctx context.Context) ([]model.Provider, error) {
	return v.store.ListProviders(ctx)
}

// ExpiresWithin reports whether cred has a refresh token and an expiry
// closer than lead to now.
func ExpiresWithin(cred *model.Credential, now time.Time, lead time.Duration) bool {
	if cred == nil || cred.RefreshToken == nil || cred.ExpiresAt == nil {
		return false
	}
	return !now.Add(lead).Before(*cred.ExpiresAt)
}

// publish copies the current set, applies mutate and swaps it in.
func (v *Vault) publish(mutate func(ProviderSet)) {
	for {
		old := v.connected.Load()
		next := make(ProviderSet, len(*old)+1)
		for p := range *old {
			next[p] = struct{}{}
		}
		mutate(next)
		if v.connected.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (v *Vault) logLookupError(ctx context.Context, provider model.Provider, err error) {
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	slog.WarnContext(ctx, "credential lookup failed", "provider", provider, "error", err)
}
