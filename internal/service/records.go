package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/store"
)

var ErrInvalidQuery = errors.New("invalid query")

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type RecordQuery struct {
	From   *time.Time
	To     *time.Time
	Source string
	Type   model.SemanticType
	Limit  int32
}

type RecordService interface {
	Get(ctx context.Context, key string) (*model.Record, error)
	List(ctx context.Context, q RecordQuery) ([]model.Record, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, key string) error
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

type recordService struct {
	records store.RecordStore
}

func NewRecordService(records store.RecordStore) RecordService {
	return &recordService{records: records}
}

func (s *recordService) Get(ctx context.Context, key string) (*model.Record, error) {
	return s.records.GetByKey(ctx, key)
}

// List filters by exactly one of source, type or time range.
func (s *recordService) List(ctx context.Context, q RecordQuery) ([]model.Record, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	switch {
	case q.Source != "":
		return s.records.ListBySource(ctx, q.Source, limit)
	case q.Type != "":
		if !q.Type.IsValid() {
			return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidQuery, q.Type)
		}
		return s.records.ListByType(ctx, q.Type, limit)
	default:
		to := time.Now()
		if q.To != nil {
			to = *q.To
		}
		from := to.Add(-24 * time.Hour)
		if q.From != nil {
			from = *q.From
		}
		if from.After(to) {
			return nil, fmt.Errorf("%w: from is after to", ErrInvalidQuery)
		}
		return s.records.ListByRange(ctx, from, to, limit)
	}
}

func (s *recordService) Count(ctx context.Context) (int64, error) {
	return s.records.Count(ctx)
}

func (s *recordService) Delete(ctx context.Context, key string) error {
	return s.records.MarkDeleted(ctx, key)
}

func (s *recordService) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.records.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning records: %w", err)
	}
	return n, nil
}
