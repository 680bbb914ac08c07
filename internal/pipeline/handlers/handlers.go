// Package handlers holds the built-in pipeline handlers and the default
// chain they are registered in.
package handlers

import (
	"context"
	"time"

	"basegraph.app/herald/common/id"
	"basegraph.app/herald/internal/credential"
	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/pipeline"
	"basegraph.app/herald/internal/settings"
	"basegraph.app/herald/internal/throttle"
)

const (
	NameSuspend        = "suspend"
	NameSourceEnabled  = "source-enabled"
	NameRemoteDedupe   = "remote-dedupe"
	NameGroupSummary   = "group-summary"
	NameSystemCategory = "system-category"
	NameEmptyMessage   = "empty-message"
	NameOngoing        = "ongoing"
	NameDeviceState    = "device-state"
	NameThrottle       = "throttle"
	NameProtection     = "protection"
	NameDuplicate      = "duplicate"
	NameBlockedTerms   = "blocked-terms"
	NameFinancial      = "financial"
	NameCapture        = "capture"
	NameMarkRead       = "mark-read"
	NameCancel         = "cancel"
)

const (
	ReasonSuspended       = "Suspended"
	ReasonSourceDisabled  = "Source disabled"
	ReasonRemoteConnected = "Remote provider connected"
	ReasonGroupSummary    = "Group summary"
	ReasonSystem          = "System notification"
	ReasonEmpty           = "Empty notification"
	ReasonOngoing         = "Ongoing notification"
	ReasonScreenOff       = "Screen off"
	ReasonInCall          = "In call"
	ReasonThrottled       = "Throttled"
	ReasonBlockedTerm     = "Blocked term"
)

// SettingsResolver yields the effective settings for a package.
type SettingsResolver interface {
	Resolve(ctx context.Context, pkg string) (settings.Effective, error)
}

// RecordStore is the part of the record store the handlers write through.
type RecordStore interface {
	Upsert(ctx context.Context, record *model.Record) (*model.Record, error)
	FindDuplicate(ctx context.Context, fingerprint, pkg string, since time.Time, excludeKey string) (*model.Record, error)
	MarkRead(ctx context.Context, key string) error
	MarkCancelled(ctx context.Context, key string) error
}

// ConnectedProviders exposes the published set of connected providers.
type ConnectedProviders interface {
	Connected() credential.ProviderSet
}

type Deps struct {
	Settings  SettingsResolver
	Records   RecordStore
	Providers ConnectedProviders
	Throttle  *throttle.Map
	// Terms caches blocked-term patterns; nil gives the handler its own.
	Terms *TermMatcher
	IDs   id.Source
	// MaxAmount bounds parsed financial amounts; zero uses the parser default.
	MaxAmount float64
	Now       func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Defaults returns the built-in chain in order.
func Defaults(d Deps) []Named {
	return []Named{
		{NameSuspend, Suspend(d)},
		{NameSourceEnabled, SourceEnabled(d)},
		{NameRemoteDedupe, RemoteDedupe(d)},
		{NameGroupSummary, GroupSummary()},
		{NameSystemCategory, SystemCategory()},
		{NameEmptyMessage, EmptyMessage()},
		{NameOngoing, Ongoing(d)},
		{NameDeviceState, DeviceState(d)},
		{NameThrottle, Throttle(d)},
		{NameProtection, Protection()},
		{NameDuplicate, Duplicate(d)},
		{NameBlockedTerms, BlockedTerms(d)},
		{NameFinancial, Financial(d)},
		{NameCapture, Capture(d)},
		{NameMarkRead, MarkRead(d)},
		{NameCancel, Cancel(d)},
	}
}

type Named struct {
	Name    string
	Handler pipeline.Handler
}

// Register adds the default chain to e and marks capture critical.
func Register(e *pipeline.Engine, d Deps) {
	for _, h := range Defaults(d) {
		e.AddHandler(h.Name, h.Handler)
	}
	e.MarkCritical(NameCapture)
}

// effective resolves settings once per event and caches them on ec.
func effective(ctx context.Context, d Deps, ec *pipeline.EventContext) (settings.Effective, error) {
	if s := ec.Settings(); s != nil {
		return *s, nil
	}
	s, err := d.Settings.Resolve(ctx, ec.Package)
	if err != nil {
		return settings.Effective{}, err
	}
	ec.SetSettings(s)
	return s, nil
}
