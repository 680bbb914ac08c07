package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"basegraph.app/herald/core/db/sqlc"
	"basegraph.app/herald/internal/model"
)

type credentialStore struct {
	queries *sqlc.Queries
}

func newCredentialStore(queries *sqlc.Queries) CredentialStore {
	return &credentialStore{queries: queries}
}

func (s *credentialStore) Upsert(ctx context.Context, cred *model.SealedCredential) (*model.SealedCredential, error) {
	row, err := s.queries.UpsertCredential(ctx, sqlc.UpsertCredentialParams{
		Provider:     string(cred.Provider),
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExpiresAt:    timeToPgTimestamptz(cred.ExpiresAt),
		AccountID:    cred.AccountID,
		Scopes:       cred.Scopes,
	})
	if err != nil {
		return nil, err
	}
	return toSealedCredential(row), nil
}

func (s *credentialStore) Get(ctx context.Context, provider model.Provider) (*model.SealedCredential, error) {
	row, err := s.queries.GetCredential(ctx, string(provider))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toSealedCredential(row), nil
}

func (s *credentialStore) Delete(ctx context.Context, provider model.Provider) error {
	_, err := s.queries.DeleteCredential(ctx, string(provider))
	return err
}

func (s *credentialStore) ListProviders(ctx context.Context) ([]model.Provider, error) {
	names, err := s.queries.ListCredentialProviders(ctx)
	if err != nil {
		return nil, err
	}
	providers := make([]model.Provider, len(names))
	for i, n := range names {
		providers[i] = model.Provider(n)
	}
	return providers, nil
}

func toSealedCredential(row sqlc.Credential) *model.SealedCredential {
	return &model.SealedCredential{
		Provider:     model.Provider(row.Provider),
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		ExpiresAt:    pgTimestamptzToPtr(row.ExpiresAt),
		AccountID:    row.AccountID,
		Scopes:       row.Scopes,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}
