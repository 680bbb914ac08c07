package store

import (
	"context"
	"errors"
	"time"

	"basegraph.app/herald/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// RecordStore defines the contract for canonical record persistence
type RecordStore interface {
	// Upsert replaces any existing record with the same correlation key.
	Upsert(ctx context.Context, record *model.Record) (*model.Record, error)
	// FindDuplicate returns the newest record other than excludeKey with the
	// same fingerprint and package posted at or after since.
	FindDuplicate(ctx context.Context, fingerprint, pkg string, since time.Time, excludeKey string) (*model.Record, error)
	GetByKey(ctx context.Context, key string) (*model.Record, error)
	MarkDeleted(ctx context.Context, key string) error
	MarkCancelled(ctx context.Context, key string) error
	MarkRead(ctx context.Context, key string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	ListBySource(ctx context.Context, pkg string, limit int32) ([]model.Record, error)
	ListByType(ctx context.Context, semanticType model.SemanticType, limit int32) ([]model.Record, error)
	ListByRange(ctx context.Context, from, to time.Time, limit int32) ([]model.Record, error)
	Count(ctx context.Context) (int64, error)
}

// CredentialStore persists sealed provider credentials
type CredentialStore interface {
	Upsert(ctx context.Context, cred *model.SealedCredential) (*model.SealedCredential, error)
	Get(ctx context.Context, provider model.Provider) (*model.SealedCredential, error)
	Delete(ctx context.Context, provider model.Provider) error
	ListProviders(ctx context.Context) ([]model.Provider, error)
}

// SettingsStore persists global and per-source settings
type SettingsStore interface {
	Get(ctx context.Context, key string) (*model.SourceSettings, error)
	Upsert(ctx context.Context, key string, settings model.SourceSettings) (*model.StoredSettings, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]model.StoredSettings, error)
}

// TraceStore is append-only apart from retention
type TraceStore interface {
	Insert(ctx context.Context, event *model.TraceEvent) error
	ListByKey(ctx context.Context, key string, types []model.TraceEventType) ([]model.TraceEvent, error)
	CountByType(ctx context.Context, since time.Time) ([]model.TraceTypeCount, error)
	HandlerStats(ctx context.Context, since time.Time) ([]model.HandlerStat, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
