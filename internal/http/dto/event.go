package dto

import (
	"time"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/pipeline"
)

type IngestEventRequest struct {
	CorrelationKey  string            `json:"correlation_key,omitempty"`
	Package         string            `json:"package" binding:"required"`
	Category        string            `json:"category,omitempty"`
	Template        string            `json:"template,omitempty"`
	Title           string            `json:"title"`
	Body            string            `json:"body"`
	PostedAt        *time.Time        `json:"posted_at,omitempty"`
	ProgressMax     int               `json:"progress_max,omitempty"`
	UsesChronometer bool              `json:"uses_chronometer,omitempty"`
	GroupSummary    bool              `json:"group_summary,omitempty"`
	Ongoing         bool              `json:"ongoing,omitempty"`
	ScreenOn        *bool             `json:"screen_on,omitempty"`
	InCall          bool              `json:"in_call,omitempty"`
	CanMarkRead     bool              `json:"can_mark_read,omitempty"`
	CanDismiss      bool              `json:"can_dismiss,omitempty"`
	Extras          map[string]string `json:"extras,omitempty"`
}

// ToModel treats a missing screen_on as screen on.
func (r IngestEventRequest) ToModel() model.LocalEvent {
	ev := model.LocalEvent{
		CorrelationKey:  r.CorrelationKey,
		Package:         r.Package,
		Category:        r.Category,
		Template:        r.Template,
		Title:           r.Title,
		Body:            r.Body,
		ProgressMax:     r.ProgressMax,
		UsesChronometer: r.UsesChronometer,
		GroupSummary:    r.GroupSummary,
		Ongoing:         r.Ongoing,
		ScreenOn:        r.ScreenOn == nil || *r.ScreenOn,
		InCall:          r.InCall,
		CanMarkRead:     r.CanMarkRead,
		CanDismiss:      r.CanDismiss,
		Extras:          r.Extras,
	}
	if r.PostedAt != nil {
		ev.PostedAt = *r.PostedAt
	}
	return ev
}

type ResultResponse struct {
	CorrelationKey string             `json:"correlation_key"`
	Origin         model.Origin       `json:"origin"`
	Type           model.SemanticType `json:"type"`
	Outcome        string             `json:"outcome"`
	Actions        []pipeline.Action  `json:"actions"`
	SkipReason     string             `json:"skip_reason,omitempty"`
	FailedHandler  string             `json:"failed_handler,omitempty"`
}

func ResultFrom(r pipeline.Result) ResultResponse {
	actions := r.Actions
	if actions == nil {
		actions = []pipeline.Action{}
	}
	return ResultResponse{
		CorrelationKey: r.CorrelationKey,
		Origin:         r.Origin,
		Type:           r.Type,
		Outcome:        r.Outcome(),
		Actions:        actions,
		SkipReason:     r.SkipReason,
		FailedHandler:  r.FailedHandler,
	}
}

type IngestEventResponse struct {
	CorrelationKey string          `json:"correlation_key"`
	Enqueued       bool            `json:"enqueued"`
	Result         *ResultResponse `json:"result,omitempty"`
}
