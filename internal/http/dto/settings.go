package dto

import (
	"time"

	"basegraph.app/herald/internal/settings"
)

type EffectiveSettingsResponse struct {
	Package               string   `json:"package"`
	Enabled               bool     `json:"enabled"`
	Suspended             bool     `json:"suspended"`
	BlockedTerms          []string `json:"blocked_terms"`
	DedupWindowSecs       int      `json:"dedup_window_secs"`
	ThrottleCooldownMs    int64    `json:"throttle_cooldown_ms"`
	SkipIfRemoteConnected bool     `json:"skip_if_remote_connected"`
	SkipWhenScreenOff     bool     `json:"skip_when_screen_off"`
	SkipWhenInCall        bool     `json:"skip_when_in_call"`
	SkipOngoing           bool     `json:"skip_ongoing"`
	AutoDismiss           bool     `json:"auto_dismiss"`
	MarkAsRead            bool     `json:"mark_as_read"`
}

func EffectiveFrom(e settings.Effective) EffectiveSettingsResponse {
	terms := e.BlockedTerms
	if terms == nil {
		terms = []string{}
	}
	return EffectiveSettingsResponse{
		Package:               e.Package,
		Enabled:               e.Enabled,
		Suspended:             e.Suspended,
		BlockedTerms:          terms,
		DedupWindowSecs:       int(e.DedupWindow / time.Second),
		ThrottleCooldownMs:    e.ThrottleCooldown.Milliseconds(),
		SkipIfRemoteConnected: e.SkipIfRemoteConnected,
		SkipWhenScreenOff:     e.SkipWhenScreenOff,
		SkipWhenInCall:        e.SkipWhenInCall,
		SkipOngoing:           e.SkipOngoing,
		AutoDismiss:           e.AutoDismiss,
		MarkAsRead:            e.MarkAsRead,
	}
}
