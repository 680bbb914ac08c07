package service_test

import (
	"context"
	"sync"
	"time"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/pipeline"
	"basegraph.app/herald/internal/provider"
	"basegraph.app/herald/internal/queue"
	"basegraph.app/herald/internal/service"
	"basegraph.app/herald/internal/store"
)

type mockEngine struct {
	processFn func(ec *pipeline.EventContext) (pipeline.Result, error)
	seen      []*pipeline.EventContext
}

func (m *mockEngine) Process(_ context.Context, ec *pipeline.EventContext) (pipeline.Result, error) {
	m.seen = append(m.seen, ec)
	if m.processFn != nil {
		return m.processFn(ec)
	}
	ec.AddAction(pipeline.ActionCaptured)
	return ec.Result(), nil
}

type mockProducer struct {
	enqueueFn func(msg queue.EventMessage) error
	enqueued  []queue.EventMessage
}

func (m *mockProducer) Enqueue(_ context.Context, msg queue.EventMessage) error {
	if m.enqueueFn != nil {
		if err := m.enqueueFn(msg); err != nil {
			return err
		}
	}
	m.enqueued = append(m.enqueued, msg)
	return nil
}

func (m *mockProducer) Close() error { return nil }

type mockRecordStore struct {
	store.RecordStore
	listBySourceFn func(pkg string, limit int32) ([]model.Record, error)
	listByTypeFn   func(t model.SemanticType, limit int32) ([]model.Record, error)
	listByRangeFn  func(from, to time.Time, limit int32) ([]model.Record, error)
	markDeletedFn  func(key string) error
}

func (m *mockRecordStore) ListBySource(_ context.Context, pkg string, limit int32) ([]model.Record, error) {
	return m.listBySourceFn(pkg, limit)
}

func (m *mockRecordStore) ListByType(_ context.Context, t model.SemanticType, limit int32) ([]model.Record, error) {
	return m.listByTypeFn(t, limit)
}

func (m *mockRecordStore) ListByRange(_ context.Context, from, to time.Time, limit int32) ([]model.Record, error) {
	return m.listByRangeFn(from, to, limit)
}

func (m *mockRecordStore) MarkDeleted(_ context.Context, key string) error {
	return m.markDeletedFn(key)
}

type mockSettingsStore struct {
	store.SettingsStore
	mu       sync.Mutex
	upserted []string
	upsertFn func(key string) error
}

func (m *mockSettingsStore) Upsert(_ context.Context, key string, s model.SourceSettings) (*model.StoredSettings, error) {
	if m.upsertFn != nil {
		if err := m.upsertFn(key); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, key)
	return &model.StoredSettings{Key: key, Settings: s}, nil
}

type mockStoreProvider struct {
	settings *mockSettingsStore
}

func (m *mockStoreProvider) Records() store.RecordStore     { return nil }
func (m *mockStoreProvider) Settings() store.SettingsStore { return m.settings }

type mockTxRunner struct {
	sp        *mockStoreProvider
	committed bool
}

func (m *mockTxRunner) WithTx(_ context.Context, fn func(stores service.StoreProvider) error) error {
	if err := fn(m.sp); err != nil {
		return err
	}
	m.committed = true
	return nil
}

type memStates struct {
	states map[string]model.Provider
}

func (m *memStates) Put(_ context.Context, state string, p model.Provider, _ time.Duration) error {
	m.states[state] = p
	return nil
}

func (m *memStates) Take(_ context.Context, state string) (model.Provider, error) {
	p, ok := m.states[state]
	if !ok {
		return "", service.ErrInvalidState
	}
	delete(m.states, state)
	return p, nil
}

type memVault struct {
	creds map[model.Provider]model.Credential
}

func (v *memVault) Store(_ context.Context, c model.Credential) error {
	v.creds[c.Provider] = c
	return nil
}

func (v *memVault) Get(_ context.Context, p model.Provider) (*model.Credential, error) {
	c, ok := v.creds[p]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (v *memVault) Delete(_ context.Context, p model.Provider) error {
	delete(v.creds, p)
	return nil
}

type stubClient struct {
	p           model.Provider
	exchangeErr error
}

func (c *stubClient) Provider() model.Provider { return c.p }

func (c *stubClient) AuthURL(redirectURI, state string) string {
	return "https://auth.example/" + string(c.p) + "?state=" + state + "&redirect_uri=" + redirectURI
}

func (c *stubClient) Exchange(context.Context, string, string) (*provider.Token, error) {
	if c.exchangeErr != nil {
		return nil, c.exchangeErr
	}
	return &provider.Token{AccessToken: "at"}, nil
}

func (c *stubClient) Refresh(context.Context, string) (*provider.Token, error) {
	return &provider.Token{AccessToken: "at"}, nil
}

func (c *stubClient) FetchMessages(context.Context, string, time.Time) ([]provider.Message, error) {
	return nil, nil
}

func (c *stubClient) MarkAsRead(context.Context, string, provider.MessageRef) error { return nil }

type mockTraceReader struct {
	countsFn   func(since time.Time) ([]model.TraceTypeCount, error)
	handlersFn func(since time.Time) ([]model.HandlerStat, error)
}

func (m *mockTraceReader) Journey(context.Context, string) ([]model.TraceEvent, error) {
	return nil, nil
}

func (m *mockTraceReader) CountsByType(_ context.Context, since time.Time) ([]model.TraceTypeCount, error) {
	return m.countsFn(since)
}

func (m *mockTraceReader) HandlerStats(_ context.Context, since time.Time) ([]model.HandlerStat, error) {
	return m.handlersFn(since)
}

func (m *mockTraceReader) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}
