// Package classifier assigns a semantic type to a raw event. Classify is a
// pure function of its input; the known-source tables are never mutated.
package classifier

import (
	"strings"

	"basegraph.app/herald/internal/model"
)

// Categories as delivered by the platform's event feed.
const (
	CategoryCall       = "call"
	CategoryTransport  = "transport"
	CategoryNavigation = "navigation"
	CategoryWorkout    = "workout"
	CategoryAlarm      = "alarm"
	CategoryStopwatch  = "stopwatch"
	CategoryMessage    = "msg"
	CategoryEmail      = "email"
	CategorySystem     = "sys"
)

const (
	templateMedia     = "mediastyle"
	templateMessaging = "messagingstyle"
)

// Input carries the attributes classification looks at.
type Input struct {
	Category        string
	Template        string
	Package         string
	ProgressMax     int
	UsesChronometer bool
}

var navigationSources = map[string]struct{}{
	"com.google.android.apps.maps":    {},
	"com.waze":                        {},
	"com.here.app.maps":               {},
	"com.sygic.aura":                  {},
	"net.osmand":                      {},
	"com.ubercab":                     {},
	"com.ubercab.driver":              {},
	"me.lyft.android":                 {},
	"com.mapbox.navigation":           {},
	"com.tomtom.gplay.navapp":         {},
	"com.citymapper.app.release":      {},
	"com.google.android.apps.navlite": {},
	"com.microsoft.bing.maps":         {},
	"ru.yandex.yandexnavi":            {},
	"com.mapquest.android.ace":        {},
	"com.apple.maps":                  {},
	"com.transit":                     {},
}

var fitnessSources = map[string]struct{}{
	"com.strava":                            {},
	"com.google.android.apps.fitness":       {},
	"com.nike.plusgps":                      {},
	"com.fitbit.FitbitMobile":               {},
	"com.garmin.android.apps.connectmobile": {},
	"com.runtastic.android":                 {},
	"com.samsung.android.app.health":        {},
	"com.endomondo.android":                 {},
	"com.mapmyrun.android2":                 {},
	"cc.pacer.androidapp":                   {},
	"com.peloton.callisto":                  {},
	"com.whoop.android":                     {},
}

var financialSources = map[string]struct{}{
	"com.venmo":                               {},
	"com.squareup.cash":                       {},
	"com.paypal.android.p2pmobile":            {},
	"com.zellepay.zelle":                      {},
	"com.chime.android":                       {},
	"com.google.android.apps.walletnfcrel":    {},
	"com.revolut.revolut":                     {},
	"com.transferwise.android":                {},
	"com.chase.sig.android":                   {},
	"com.wf.wellsfargomobile":                 {},
	"com.infonow.bofa":                        {},
	"com.konylabs.capitalone":                 {},
	"com.americanexpress.android.acctsvcs.us": {},
	"com.monzo.android":                       {},
	"com.starlingbank.android":                {},
}

// Classify applies the rules in priority order; the first match wins.
func Classify(in Input) model.SemanticType {
	category := strings.ToLower(strings.TrimSpace(in.Category))
	template := strings.ToLower(in.Template)

	switch {
	case category == CategoryCall:
		return model.SemanticTypeCall
	case strings.Contains(template, templateMedia) || category == CategoryTransport:
		return model.SemanticTypeMedia
	case category == CategoryNavigation || IsNavigationSource(in.Package):
		return model.SemanticTypeNavigation
	case category == CategoryWorkout || IsFitnessSource(in.Package):
		return model.SemanticTypeFitness
	case category == CategoryAlarm || category == CategoryStopwatch || in.UsesChronometer:
		return model.SemanticTypeAlarm
	case IsFinancialSource(in.Package):
		return model.SemanticTypeFinancial
	case strings.Contains(template, templateMessaging) || category == CategoryMessage || category == CategoryEmail:
		return model.SemanticTypeMessage
	case in.ProgressMax > 0:
		return model.SemanticTypeProgress
	default:
		return model.SemanticTypeStandard
	}
}

func IsNavigationSource(pkg string) bool {
	_, ok := navigationSources[pkg]
	return ok
}

func IsFitnessSource(pkg string) bool {
	_, ok := fitnessSources[pkg]
	return ok
}

// IsFinancialSource reports whether pkg is a known payment or banking app.
func IsFinancialSource(pkg string) bool {
	_, ok := financialSources[pkg]
	return ok
}
