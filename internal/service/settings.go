package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/settings"
	"basegraph.app/herald/internal/store"
)

type SettingsService interface {
	Get(ctx context.Context, key string) (*model.SourceSettings, error)
	Put(ctx context.Context, key string, s model.SourceSettings) (*model.StoredSettings, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]model.StoredSettings, error)
	// Import writes every entry in one transaction.
	Import(ctx context.Context, entries []settings.Entry) (int, error)
	Effective(ctx context.Context, pkg string) (settings.Effective, error)
}

type settingsService struct {
	store    store.SettingsStore
	txRunner TxRunner
	resolver *settings.Resolver
}

func NewSettingsService(s store.SettingsStore, txRunner TxRunner, resolver *settings.Resolver) SettingsService {
	return &settingsService{store: s, txRunner: txRunner, resolver: resolver}
}

func (s *settingsService) Get(ctx context.Context, key string) (*model.SourceSettings, error) {
	return s.store.Get(ctx, key)
}

func (s *settingsService) Put(ctx context.Context, key string, v model.SourceSettings) (*model.StoredSettings, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: settings key is required", ErrInvalidQuery)
	}
	return s.store.Upsert(ctx, key, v)
}

func (s *settingsService) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}

func (s *settingsService) List(ctx context.Context) ([]model.StoredSettings, error) {
	return s.store.List(ctx)
}

func (s *settingsService) Import(ctx context.Context, entries []settings.Entry) (int, error) {
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		for _, e := range entries {
			if _, err := sp.Settings().Upsert(ctx, e.Key, e.Settings); err != nil {
				return fmt.Errorf("importing %s: %w", e.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "settings imported", "entries", len(entries))
	return len(entries), nil
}

func (s *settingsService) Effective(ctx context.Context, pkg string) (settings.Effective, error) {
	return s.resolver.Resolve(ctx, pkg)
}
