package model

import "time"

// GlobalSettingsKey addresses the settings every source falls back to.
const GlobalSettingsKey = "global"

// SourceSettings is stored per key ("global" or a package id). A nil field is
// unset and falls through to the next layer.
type SourceSettings struct {
	Enabled               *bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	BlockedTerms          []string `json:"blocked_terms,omitempty" yaml:"blocked_terms,omitempty"`
	DedupWindowSecs       *int     `json:"dedup_window_secs,omitempty" yaml:"dedup_window_secs,omitempty"`
	SkipIfRemoteConnected *bool    `json:"skip_if_remote_connected,omitempty" yaml:"skip_if_remote_connected,omitempty"`
	SkipWhenScreenOff     *bool    `json:"skip_when_screen_off,omitempty" yaml:"skip_when_screen_off,omitempty"`
	SkipWhenInCall        *bool    `json:"skip_when_in_call,omitempty" yaml:"skip_when_in_call,omitempty"`
	Suspended             *bool    `json:"suspended,omitempty" yaml:"suspended,omitempty"`
	SkipOngoing           *bool    `json:"skip_ongoing,omitempty" yaml:"skip_ongoing,omitempty"`
	AutoDismiss           *bool    `json:"auto_dismiss,omitempty" yaml:"auto_dismiss,omitempty"`
	MarkAsRead            *bool    `json:"mark_as_read,omitempty" yaml:"mark_as_read,omitempty"`
	ThrottleCooldownSecs  *int     `json:"throttle_cooldown_secs,omitempty" yaml:"throttle_cooldown_secs,omitempty"`
}

// StoredSettings is one row of the settings table.
type StoredSettings struct {
	UpdatedAt time.Time      `json:"updated_at"`
	Key       string         `json:"key"`
	Settings  SourceSettings `json:"settings"`
}
