package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Enrich once near the entry point of a unit of work (an event, a poll cycle,
// a queue message) and every slog call below it carries the same fields.
type LogFields struct {
	CorrelationKey *string // event correlation key
	Origin         *string // "local" or a provider name
	Package        *string // originating package / source id
	Provider       *string // remote provider being synced or refreshed
	MessageID      *string // Redis stream message ID
	Handler        *string // pipeline handler currently running
	Component      string  // e.g. "herald.pipeline.engine"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields returns the fields stored on ctx, or the zero value.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.CorrelationKey != nil {
		result.CorrelationKey = new.CorrelationKey
	}
	if new.Origin != nil {
		result.Origin = new.Origin
	}
	if new.Package != nil {
		result.Package = new.Package
	}
	if new.Provider != nil {
		result.Provider = new.Provider
	}
	if new.MessageID != nil {
		result.MessageID = new.MessageID
	}
	if new.Handler != nil {
		result.Handler = new.Handler
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
