package pipeline

import (
	"context"
	"fmt"
	"time"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/settings"
)

type Action string

const (
	ActionCaptured   Action = "CAPTURED"
	ActionSkipped    Action = "SKIPPED"
	ActionCancelled  Action = "CANCELLED"
	ActionMarkedRead Action = "MARKED_READ"
)

// ReadTrigger marks the originating notification as read at its source.
type ReadTrigger interface {
	MarkRead(ctx context.Context) error
}

// Dismisser removes the originating notification from the device.
type Dismisser interface {
	Dismiss(ctx context.Context) error
}

type DeviceState struct {
	ScreenOn bool
	InCall   bool
}

// Markers are platform hints set by the event source.
type Markers struct {
	GroupSummary bool
	Ongoing      bool
}

// EventContext is created once per event and owned by the Process call it is
// passed to. Handlers mutate it in place.
type EventContext struct {
	PostedAt       time.Time
	ReadTrigger    ReadTrigger
	Dismisser      Dismisser
	Financial      *model.Financial
	Extras         map[string]string
	settings       *settings.Effective
	CorrelationKey string
	Origin         model.Origin
	Type           model.SemanticType
	Package        string
	Category       string
	Title          string
	Body           string
	Fingerprint    string
	SkipReason     string
	FailedHandler  string
	actions        []Action
	Device         DeviceState
	Markers        Markers
	ShouldCapture  bool
	ShouldCancel   bool
	ShouldMarkRead bool
	Protected      bool
}

// NewEventContext returns a context with capture enabled and nothing else.
func NewEventContext(key string, origin model.Origin, semanticType model.SemanticType) *EventContext {
	return &EventContext{
		CorrelationKey: key,
		Origin:         origin,
		Type:           semanticType,
		ShouldCapture:  true,
		Device:         DeviceState{ScreenOn: true},
		Extras:         map[string]string{},
	}
}

// Skip records reason, clears every pending side effect and marks the event
// SKIPPED. The caller still decides whether to halt.
func (ec *EventContext) Skip(reason string) {
	ec.SkipReason = reason
	ec.ShouldCapture = false
	ec.ShouldCancel = false
	ec.ShouldMarkRead = false
	ec.AddAction(ActionSkipped)
}

// Fail force-skips the event after the critical handler name failed.
func (ec *EventContext) Fail(name string, err error) {
	ec.FailedHandler = name
	ec.Skip(fmt.Sprintf("Handler %s failed: %v", name, err))
}

// AddAction appends a unless it is already present.
func (ec *EventContext) AddAction(a Action) {
	if ec.HasAction(a) {
		return
	}
	ec.actions = append(ec.actions, a)
}

func (ec *EventContext) HasAction(a Action) bool {
	for _, existing := range ec.actions {
		if existing == a {
			return true
		}
	}
	return false
}

func (ec *EventContext) Actions() []Action {
	return append([]Action(nil), ec.actions...)
}

// Settings returns the effective settings cached by an earlier handler, or nil.
func (ec *EventContext) Settings() *settings.Effective {
	return ec.settings
}

func (ec *EventContext) SetSettings(s settings.Effective) {
	ec.settings = &s
}

func (ec *EventContext) Result() Result {
	return Result{
		CorrelationKey: ec.CorrelationKey,
		Origin:         ec.Origin,
		Type:           ec.Type,
		Actions:        ec.Actions(),
		SkipReason:     ec.SkipReason,
		FailedHandler:  ec.FailedHandler,
	}
}
