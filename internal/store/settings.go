package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"basegraph.app/herald/core/db/sqlc"
	"basegraph.app/herald/internal/model"
)

type settingsStore struct {
	queries *sqlc.Queries
}

func newSettingsStore(queries *sqlc.Queries) SettingsStore {
	return &settingsStore{queries: queries}
}

func (s *settingsStore) Get(ctx context.Context, key string) (*model.SourceSettings, error) {
	row, err := s.queries.GetSourceSettings(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	stored, err := toStoredSettings(row)
	if err != nil {
		return nil, err
	}
	return &stored.Settings, nil
}

func (s *settingsStore) Upsert(ctx context.Context, key string, settings model.SourceSettings) (*model.StoredSettings, error) {
	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("encoding settings %q: %w", key, err)
	}
	row, err := s.queries.UpsertSourceSettings(ctx, sqlc.UpsertSourceSettingsParams{
		Key:      key,
		Settings: raw,
	})
	if err != nil {
		return nil, err
	}
	return toStoredSettings(row)
}

func (s *settingsStore) Delete(ctx context.Context, key string) error {
	return rowsOrNotFound(s.queries.DeleteSourceSettings(ctx, key))
}

func (s *settingsStore) List(ctx context.Context) ([]model.StoredSettings, error) {
	rows, err := s.queries.ListSourceSettings(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]model.StoredSettings, 0, len(rows))
	for _, row := range rows {
		stored, err := toStoredSettings(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *stored)
	}
	return result, nil
}

func toStoredSettings(row sqlc.SourceSetting) (*model.StoredSettings, error) {
	stored := &model.StoredSettings{
		Key:       row.Key,
		UpdatedAt: row.UpdatedAt.Time,
	}
	if len(row.Settings) > 0 {
		if err := json.Unmarshal(row.Settings, &stored.Settings); err != nil {
			return nil, fmt.Errorf("decoding settings %q: %w", row.Key, err)
		}
	}
	return stored, nil
}
