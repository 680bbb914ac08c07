package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"basegraph.app/herald/common/logger"
	"basegraph.app/herald/common/metrics"
	"basegraph.app/herald/internal/credential"
	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/store"
)

// RefreshLead is how long before expiry a token is proactively refreshed.
const RefreshLead = 5 * time.Minute

// Vault is the credential capability a Connector needs.
type Vault interface {
	Store(ctx context.Context, cred model.Credential) error
	Get(ctx context.Context, provider model.Provider) (*model.Credential, error)
	Delete(ctx context.Context, provider model.Provider) error
}

// RefreshRecorder is notified of every network refresh attempt.
type RefreshRecorder interface {
	TokenRefreshed(ctx context.Context, provider model.Provider, err error)
}

// Connector wraps a Client with token storage and refresh. Network and auth
// failures never escape as errors from IsConnected, ExchangeCode or
// FetchMessages.
type Connector struct {
	client   Client
	vault    Vault
	recorder RefreshRecorder
	now      func() time.Time

	// refreshMu serializes refreshes for this provider.
	refreshMu sync.Mutex
}

type ConnectorOption func(*Connector)

func WithRefreshRecorder(r RefreshRecorder) ConnectorOption {
	return func(c *Connector) { c.recorder = r }
}

func WithClock(now func() time.Time) ConnectorOption {
	return func(c *Connector) { c.now = now }
}

func NewConnector(client Client, vault Vault, opts ...ConnectorOption) *Connector {
	c := &Connector{client: client, vault: vault, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Connector) Provider() model.Provider {
	return c.client.Provider()
}

// IsConnected reports whether a usable token exists, refreshing it first
// when it is within RefreshLead of expiry.
func (c *Connector) IsConnected(ctx context.Context) bool {
	cred, err := c.token(ctx)
	return err == nil && cred != nil
}

func (c *Connector) AuthURL(redirectURI, state string) string {
	return c.client.AuthURL(redirectURI, state)
}

// ExchangeCode trades an authorization code for tokens and stores them.
func (c *Connector) ExchangeCode(ctx context.Context, code, redirectURI string) bool {
	ctx = c.logCtx(ctx)
	tok, err := c.client.Exchange(ctx, code, redirectURI)
	if err != nil {
		slog.WarnContext(ctx, "code exchange failed", "error", err)
		return false
	}
	if err := c.vault.Store(ctx, c.credentialFrom(tok)); err != nil {
		slog.ErrorContext(ctx, "storing exchanged token failed", "error", err)
		return false
	}
	slog.InfoContext(ctx, "provider connected")
	return true
}

// FetchMessages returns nil on any failure.
func (c *Connector) FetchMessages(ctx context.Context, since time.Time) []Message {
	msgs, err := c.Fetch(ctx, since)
	if err != nil {
		slog.WarnContext(c.logCtx(ctx), "fetching messages failed", "error", err)
		return nil
	}
	return msgs
}

// Fetch is FetchMessages with the failure reported, for callers that track
// per-provider health.
func (c *Connector) Fetch(ctx context.Context, since time.Time) ([]Message, error) {
	cred, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := c.client.FetchMessages(ctx, cred.AccessToken, since)
	if err != nil {
		return nil, fmt.Errorf("fetching %s messages: %w", c.Provider(), err)
	}
	metrics.MessagesFetched.WithLabelValues(string(c.Provider())).Add(float64(len(msgs)))
	return msgs, nil
}

// MarkAsReadBatch acknowledges refs in one call when the client supports
// it, otherwise one at a time.
func (c *Connector) MarkAsReadBatch(ctx context.Context, refs []MessageRef) error {
	if len(refs) == 0 {
		return nil
	}
	cred, err := c.token(ctx)
	if err != nil {
		return err
	}
	if batcher, ok := c.client.(BatchMarker); ok {
		return batcher.MarkAsReadBatch(ctx, cred.AccessToken, refs)
	}
	return MarkSequentially(ctx, c.client, cred.AccessToken, refs)
}

// MarkSequentially is the reference acknowledgement path. It attempts every
// ref and joins the failures.
func MarkSequentially(ctx context.Context, client Client, accessToken string, refs []MessageRef) error {
	var errs []error
	for _, ref := range refs {
		if err := client.MarkAsRead(ctx, accessToken, ref); err != nil {
			errs = append(errs, fmt.Errorf("marking %s read: %w", ref.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Disconnect releases the client and deletes the stored credential.
func (c *Connector) Disconnect(ctx context.Context) error {
	if closer, ok := c.client.(Closer); ok {
		if err := closer.Close(); err != nil {
			slog.WarnContext(c.logCtx(ctx), "closing provider client failed", "error", err)
		}
	}
	return c.vault.Delete(ctx, c.Provider())
}

var errNotConnected = errors.New("not connected")

// token returns a credential that is valid now, refreshing if needed.
func (c *Connector) token(ctx context.Context) (*model.Credential, error) {
	cred, err := c.vault.Get(ctx, c.Provider())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errNotConnected
		}
		return nil, fmt.Errorf("loading %s credential: %w", c.Provider(), err)
	}

	if credential.ExpiresWithin(cred, c.now(), RefreshLead) {
		if refreshed, err := c.refresh(ctx); err == nil {
			cred = refreshed
		} else {
			slog.WarnContext(c.logCtx(ctx), "token refresh failed", "error", err)
		}
	}

	if cred.ExpiresAt != nil && !c.now().Before(*cred.ExpiresAt) {
		return nil, fmt.Errorf("%s token expired", c.Provider())
	}
	return cred, nil
}

// refresh re-reads the credential under the lock so that callers queued
// behind a successful refresh reuse its result.
func (c *Connector) refresh(ctx context.Context) (*model.Credential, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	cred, err := c.vault.Get(ctx, c.Provider())
	if err != nil {
		return nil, fmt.Errorf("reloading credential: %w", err)
	}
	if !credential.ExpiresWithin(cred, c.now(), RefreshLead) {
		return cred, nil
	}

	tok, err := c.client.Refresh(ctx, *cred.RefreshToken)
	c.recordRefresh(ctx, err)
	if err != nil {
		return nil, err
	}

	next := c.credentialFrom(tok)
	if next.AccountID == nil {
		next.AccountID = cred.AccountID
	}
	if len(next.Scopes) == 0 {
		next.Scopes = cred.Scopes
	}
	if err := c.vault.Store(ctx, next); err != nil {
		return nil, fmt.Errorf("storing refreshed token: %w", err)
	}
	return &next, nil
}

func (c *Connector) recordRefresh(ctx context.Context, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.TokenRefreshes.WithLabelValues(string(c.Provider()), result).Inc()
	if c.recorder != nil {
		c.recorder.TokenRefreshed(ctx, c.Provider(), err)
	}
}

func (c *Connector) credentialFrom(tok *Token) model.Credential {
	return model.Credential{
		Provider:     c.Provider(),
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.ExpiresAt,
		AccountID:    tok.AccountID,
		Scopes:       tok.Scopes,
	}
}

func (c *Connector) logCtx(ctx context.Context) context.Context {
	p := string(c.Provider())
	return logger.WithLogFields(ctx, logger.LogFields{
		Provider:  &p,
		Component: "herald.provider.connector",
	})
}
