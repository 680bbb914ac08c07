package store

import (
	"basegraph.app/herald/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) Records() RecordStore {
	return newRecordStore(s.queries)
}

func (s *Stores) Credentials() CredentialStore {
	return newCredentialStore(s.queries)
}

func (s *Stores) Settings() SettingsStore {
	return newSettingsStore(s.queries)
}

func (s *Stores) Traces() TraceStore {
	return newTraceStore(s.queries)
}
