package model

import "time"

// LocalEvent is a raw notification as delivered by a device agent.
type LocalEvent struct {
	PostedAt        time.Time         `json:"posted_at"`
	Extras          map[string]string `json:"extras,omitempty"`
	CorrelationKey  string            `json:"correlation_key"`
	Package         string            `json:"package"`
	Category        string            `json:"category,omitempty"`
	Template        string            `json:"template,omitempty"`
	Title           string            `json:"title"`
	Body            string            `json:"body"`
	ProgressMax     int               `json:"progress_max,omitempty"`
	UsesChronometer bool              `json:"uses_chronometer,omitempty"`
	GroupSummary    bool              `json:"group_summary,omitempty"`
	Ongoing         bool              `json:"ongoing,omitempty"`
	ScreenOn        bool              `json:"screen_on"`
	InCall          bool              `json:"in_call,omitempty"`
	// CanMarkRead means the source notification carries a read action.
	CanMarkRead bool `json:"can_mark_read,omitempty"`
	CanDismiss  bool `json:"can_dismiss,omitempty"`
}
