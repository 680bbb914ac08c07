package pipeline

import (
	"time"

	"basegraph.app/herald/internal/classifier"
	"basegraph.app/herald/internal/fingerprint"
	"basegraph.app/herald/internal/model"
)

// NewLocalContext classifies and fingerprints a device event. Callers attach
// the ReadTrigger and Dismisser when the source supports them.
func NewLocalContext(ev model.LocalEvent) *EventContext {
	t := classifier.Classify(classifier.Input{
		Category:        ev.Category,
		Template:        ev.Template,
		Package:         ev.Package,
		ProgressMax:     ev.ProgressMax,
		UsesChronometer: ev.UsesChronometer,
	})

	ec := NewEventContext(ev.CorrelationKey, model.OriginLocal, t)
	ec.Package = ev.Package
	ec.Category = ev.Category
	ec.Title = ev.Title
	ec.Body = ev.Body
	ec.PostedAt = ev.PostedAt
	if ec.PostedAt.IsZero() {
		ec.PostedAt = time.Now()
	}
	ec.Fingerprint = fingerprint.Compute(ev.Package, ev.Title, ev.Body)
	ec.Device = DeviceState{ScreenOn: ev.ScreenOn, InCall: ev.InCall}
	ec.Markers = Markers{GroupSummary: ev.GroupSummary, Ongoing: ev.Ongoing}
	for k, v := range ev.Extras {
		ec.Extras[k] = v
	}
	return ec
}
