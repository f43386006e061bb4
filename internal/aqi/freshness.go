package aqi

import (
	"math"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultMaxDataAgeHours is the freshness ceiling for provider observations.
// Deliberately generous (~5 years): providers may only hold historical data in
// poorly monitored regions, and old-but-labeled data beats no data.
const DefaultMaxDataAgeHours = 43800

// timestampLayouts are the accepted observation time formats. Providers report
// ISO-8601 with or without an offset; WAQI uses a space separator.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a provider observation time. A trailing literal "Z"
// means UTC; a missing zone defaults to UTC. Returns false for unparsable or
// empty values.
func ParseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}

	// Normalize the Z suffix so zoneless layouts still match.
	trimmed := strings.TrimSuffix(value, "Z")
	explicitUTC := trimmed != value

	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
		if explicitUTC {
			if ts, err := time.Parse(layout, trimmed); err == nil {
				return ts.UTC(), true
			}
		}
	}

	return time.Time{}, false
}

// FreshnessClassifier decides whether an observation is fresh or a stale
// candidate based on its age.
type FreshnessClassifier struct {
	maxAgeHours float64
	clock       clockwork.Clock
}

// NewFreshnessClassifier creates a classifier. A zero maxAgeHours selects the
// default ceiling; a nil clock selects the real clock.
func NewFreshnessClassifier(maxAgeHours float64, clock clockwork.Clock) *FreshnessClassifier {
	if maxAgeHours == 0 {
		maxAgeHours = DefaultMaxDataAgeHours
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FreshnessClassifier{maxAgeHours: maxAgeHours, clock: clock}
}

// AgeHours returns the hours elapsed since the given observation time,
// rounded to two decimals, or nil if the timestamp is unparsable or missing.
func (f *FreshnessClassifier) AgeHours(timestamp string) *float64 {
	ts, ok := ParseTimestamp(timestamp)
	if !ok {
		return nil
	}
	hours := f.clock.Now().UTC().Sub(ts.UTC()).Hours()
	rounded := math.Round(hours*100) / 100
	return &rounded
}

// IsFresh reports whether an observation with the given age is within the
// freshness ceiling. A nil age (unparsable timestamp) is treated as fresh
// rather than rejected: the age is simply omitted from the observation.
func (f *FreshnessClassifier) IsFresh(ageHours *float64) bool {
	return ageHours == nil || *ageHours <= f.maxAgeHours
}

// MaxAgeHours exposes the configured ceiling.
func (f *FreshnessClassifier) MaxAgeHours() float64 {
	return f.maxAgeHours
}
