package pipeline

import "basegraph.app/herald/internal/model"

// Result is the immutable outcome of one pipeline run. FailedHandler names
// the critical handler whose failure forced the skip, if any.
type Result struct {
	CorrelationKey string             `json:"correlation_key"`
	Origin         model.Origin       `json:"origin"`
	Type           model.SemanticType `json:"type"`
	SkipReason     string             `json:"skip_reason,omitempty"`
	FailedHandler  string             `json:"failed_handler,omitempty"`
	Actions        []Action           `json:"actions"`
}

func (r Result) Has(a Action) bool {
	for _, existing := range r.Actions {
		if existing == a {
			return true
		}
	}
	return false
}

func (r Result) Captured() bool   { return r.Has(ActionCaptured) }
func (r Result) Cancelled() bool  { return r.Has(ActionCancelled) }
func (r Result) Skipped() bool    { return r.Has(ActionSkipped) }
func (r Result) MarkedRead() bool { return r.Has(ActionMarkedRead) }

// Failed reports a skip forced by a critical handler rather than a filter
// decision. The event was not handled and should be delivered again.
func (r Result) Failed() bool { return r.FailedHandler != "" }

// Outcome is a single label for metrics and logs.
func (r Result) Outcome() string {
	switch {
	case r.Skipped():
		return "skipped"
	case r.Captured():
		return "captured"
	default:
		return "processed"
	}
}
