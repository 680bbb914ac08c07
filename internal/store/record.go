package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"basegraph.app/herald/core/db/sqlc"
	"basegraph.app/herald/internal/model"
)

type recordStore struct {
	queries *sqlc.Queries
}

func newRecordStore(queries *sqlc.Queries) RecordStore {
	return &recordStore{queries: queries}
}

func (s *recordStore) Upsert(ctx context.Context, record *model.Record) (*model.Record, error) {
	params := sqlc.UpsertRecordParams{
		ID:             record.ID,
		CorrelationKey: record.CorrelationKey,
		Origin:         string(record.Origin),
		Package:        record.Package,
		SemanticType:   string(record.SemanticType),
		Title:          nonEmpty(record.Title),
		Body:           nonEmpty(record.Body),
		Fingerprint:    record.Fingerprint,
		PostedAt:       pgTimestamptz(record.PostedAt),
		CapturedAt:     pgTimestamptz(record.CapturedAt),
	}
	if f := record.Financial; f != nil {
		txnType := string(f.Type)
		requiresAction := f.RequiresAction
		params.TxnType = &txnType
		params.AmountMinor = f.AmountMinor
		params.Currency = nonEmpty(f.Currency)
		params.RequiresAction = &requiresAction
	}

	row, err := s.queries.UpsertRecord(ctx, params)
	if err != nil {
		return nil, err
	}
	return toRecordModel(row), nil
}

func (s *recordStore) FindDuplicate(ctx context.Context, fingerprint, pkg string, since time.Time, excludeKey string) (*model.Record, error) {
	row, err := s.queries.FindDuplicateRecord(ctx, sqlc.FindDuplicateRecordParams{
		Fingerprint:    fingerprint,
		Package:        pkg,
		PostedAt:       pgTimestamptz(since),
		CorrelationKey: excludeKey,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toRecordModel(row), nil
}

func (s *recordStore) GetByKey(ctx context.Context, key string) (*model.Record, error) {
	row, err := s.queries.GetRecordByKey(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toRecordModel(row), nil
}

func (s *recordStore) MarkDeleted(ctx context.Context, key string) error {
	return rowsOrNotFound(s.queries.MarkRecordDeleted(ctx, key))
}

func (s *recordStore) MarkCancelled(ctx context.Context, key string) error {
	return rowsOrNotFound(s.queries.MarkRecordCancelled(ctx, key))
}

func (s *recordStore) MarkRead(ctx context.Context, key string) error {
	return rowsOrNotFound(s.queries.MarkRecordRead(ctx, key))
}

func (s *recordStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.queries.DeleteRecordsOlderThan(ctx, pgTimestamptz(cutoff))
}

func (s *recordStore) ListBySource(ctx context.Context, pkg string, limit int32) ([]model.Record, error) {
	rows, err := s.queries.ListRecordsByPackage(ctx, sqlc.ListRecordsByPackageParams{
		Package: pkg,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	return toRecordModels(rows), nil
}

func (s *recordStore) ListByType(ctx context.Context, semanticType model.SemanticType, limit int32) ([]model.Record, error) {
	rows, err := s.queries.ListRecordsByType(ctx, sqlc.ListRecordsByTypeParams{
		SemanticType: string(semanticType),
		Limit:        limit,
	})
	if err != nil {
		return nil, err
	}
	return toRecordModels(rows), nil
}

func (s *recordStore) ListByRange(ctx context.Context, from, to time.Time, limit int32) ([]model.Record, error) {
	rows, err := s.queries.ListRecordsInRange(ctx, sqlc.ListRecordsInRangeParams{
		PostedAt:   pgTimestamptz(from),
		PostedAt_2: pgTimestamptz(to),
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return toRecordModels(rows), nil
}

func (s *recordStore) Count(ctx context.Context) (int64, error) {
	return s.queries.CountRecords(ctx)
}

func rowsOrNotFound(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func toRecordModel(row sqlc.Record) *model.Record {
	rec := &model.Record{
		ID:             row.ID,
		CorrelationKey: row.CorrelationKey,
		Origin:         model.Origin(row.Origin),
		Package:        row.Package,
		SemanticType:   model.SemanticType(row.SemanticType),
		Title:          deref(row.Title),
		Body:           deref(row.Body),
		Fingerprint:    row.Fingerprint,
		PostedAt:       row.PostedAt.Time,
		CapturedAt:     row.CapturedAt.Time,
		IsCancelled:    row.IsCancelled,
		IsMarkedRead:   row.IsMarkedRead,
		IsDeleted:      row.IsDeleted,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
	if row.TxnType != nil {
		rec.Financial = &model.Financial{
			Type:           model.TransactionType(*row.TxnType),
			AmountMinor:    row.AmountMinor,
			Currency:       deref(row.Currency),
			RequiresAction: row.RequiresAction != nil && *row.RequiresAction,
		}
	}
	return rec
}

func toRecordModels(rows []sqlc.Record) []model.Record {
	result := make([]model.Record, len(rows))
	for i, row := range rows {
		result[i] = *toRecordModel(row)
	}
	return result
}
