package provider_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/provider"
	"basegraph.app/herald/internal/store"
)

type memVault struct {
	mu    sync.Mutex
	creds map[model.Provider]model.Credential
	getFn func() error
}

func newMemVault() *memVault {
	return &memVault{creds: map[model.Provider]model.Credential{}}
}

func (v *memVault) Store(_ context.Context, cred model.Credential) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.creds[cred.Provider] = cred
	return nil
}

func (v *memVault) Get(_ context.Context, p model.Provider) (*model.Credential, error) {
	if v.getFn != nil {
		if err := v.getFn(); err != nil {
			return nil, err
		}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	cred, ok := v.creds[p]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &cred, nil
}

func (v *memVault) Delete(_ context.Context, p model.Provider) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.creds, p)
	return nil
}

type stubClient struct {
	provider model.Provider
	now      func() time.Time

	refreshCalls atomic.Int32
	refreshDelay time.Duration
	refreshErr   error
	exchangeErr  error
	fetchErr     error
	messages     []provider.Message

	mu     sync.Mutex
	marked []provider.MessageRef
	markFn func(ref provider.MessageRef) error
	closed bool
}

func (c *stubClient) Provider() model.Provider { return c.provider }

func (c *stubClient) AuthURL(redirectURI, state string) string {
	return "https://auth.example/authorize?state=" + state
}

func (c *stubClient) Exchange(_ context.Context, code, _ string) (*provider.Token, error) {
	if c.exchangeErr != nil {
		return nil, c.exchangeErr
	}
	exp := c.now().Add(time.Hour)
	return &provider.Token{AccessToken: "access-" + code, RefreshToken: ptr("refresh-" + code), ExpiresAt: &exp}, nil
}

func (c *stubClient) Refresh(_ context.Context, refreshToken string) (*provider.Token, error) {
	c.refreshCalls.Add(1)
	time.Sleep(c.refreshDelay)
	if c.refreshErr != nil {
		return nil, c.refreshErr
	}
	exp := c.now().Add(time.Hour)
	return &provider.Token{AccessToken: "refreshed", ExpiresAt: &exp}, nil
}

func (c *stubClient) FetchMessages(_ context.Context, _ string, _ time.Time) ([]provider.Message, error) {
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return c.messages, nil
}

func (c *stubClient) MarkAsRead(_ context.Context, _ string, ref provider.MessageRef) error {
	if c.markFn != nil {
		if err := c.markFn(ref); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.marked = append(c.marked, ref)
	return nil
}

func (c *stubClient) Close() error {
	c.closed = true
	return nil
}

type batchClient struct {
	*stubClient
	batches [][]provider.MessageRef
}

func (c *batchClient) MarkAsReadBatch(_ context.Context, _ string, refs []provider.MessageRef) error {
	c.batches = append(c.batches, refs)
	return nil
}

type refreshLog struct {
	mu   sync.Mutex
	errs []error
}

func (r *refreshLog) TokenRefreshed(_ context.Context, _ model.Provider, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T { return &v }
