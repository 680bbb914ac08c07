package model

import (
	"encoding/json"
	"time"
)

type Severity string

const (
	SeverityDebug Severity = "debug"
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

type TraceEventType string

const (
	TraceEventPipelineStart    TraceEventType = "pipeline_start"
	TraceEventPipelineComplete TraceEventType = "pipeline_complete"
	TraceEventHandlerExecuted  TraceEventType = "handler_executed"
	TraceEventHandlerHalted    TraceEventType = "handler_halted"
	TraceEventHandlerFailed    TraceEventType = "handler_failed"
	TraceEventPollCycle        TraceEventType = "poll_cycle"
	TraceEventProviderFailure  TraceEventType = "provider_failure"
	TraceEventTokenRefresh     TraceEventType = "token_refresh"
)

// JourneyEventTypes are the types that make up one event's path through the pipeline.
var JourneyEventTypes = []TraceEventType{
	TraceEventPipelineStart,
	TraceEventHandlerExecuted,
	TraceEventHandlerHalted,
	TraceEventHandlerFailed,
	TraceEventPipelineComplete,
}

// TraceEvent is append-only; only retention deletes it.
type TraceEvent struct {
	OccurredAt     time.Time       `json:"occurred_at"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CorrelationKey *string         `json:"correlation_key,omitempty"`
	Handler        *string         `json:"handler,omitempty"`
	Duration       *time.Duration  `json:"duration,omitempty"`
	Failure        *string         `json:"failure,omitempty"`
	Severity       Severity        `json:"severity"`
	Type           TraceEventType  `json:"type"`
	Message        string          `json:"message"`
	ID             int64           `json:"id"`
}

type TraceTypeCount struct {
	Type  TraceEventType `json:"type"`
	Total int64          `json:"total"`
}

type HandlerStat struct {
	Handler     string        `json:"handler"`
	Executions  int64         `json:"executions"`
	AvgDuration time.Duration `json:"avg_duration"`
}
