// Package aqi implements the air-quality aggregation core: the CPCB index
// calculation, provider observation model, freshness rules, result cache and
// the aggregation service behind /aqi/current.
package aqi

import "time"

// Source identifies where an observation came from.
type Source string

// Known observation sources.
const (
	SourceWAQI     Source = "WAQI"
	SourceOpenAQ   Source = "OpenAQ"
	SourceDatabase Source = "database"
)

// Observation is a normalized air-quality reading from a single provider.
// Immutable once constructed by a provider client.
type Observation struct {
	// AQI is the displayed index: the recomputed CPCB index when pollutant
	// concentrations were available, otherwise the provider-native index.
	AQI int `json:"aqi"`

	// AQIRaw is the provider-native index, kept distinct from the
	// recomputed value for transparency. Nil when the provider reports
	// concentrations only.
	AQIRaw *int `json:"aqi_raw,omitempty"`

	// AQICPCB is the index recomputed from concentrations, nil when
	// neither PM2.5 nor PM10 was reported.
	AQICPCB *int `json:"aqi_cpcb,omitempty"`

	PM25 *float64 `json:"pm25"`
	PM10 *float64 `json:"pm10"`

	Category      string `json:"category"`
	HealthMessage string `json:"health_message"`

	StationName       string   `json:"station_name,omitempty"`
	StationDistanceKm *float64 `json:"station_distance_km,omitempty"`

	TimestampUTC string   `json:"timestamp_utc,omitempty"`
	AgeHours     *float64 `json:"age_hours,omitempty"`

	// IsStale marks an observation older than the maximum data age,
	// surfaced only when no fresher observation exists.
	IsStale bool `json:"is_stale,omitempty"`

	Source Source `json:"source"`
}

// FetchResult is what a provider client hands back to the aggregator:
// a live observation, a stale candidate, or neither.
type FetchResult struct {
	// Live is a fresh, geographically validated observation.
	Live *Observation

	// Stale is the best observation that failed the freshness check.
	// Promoted to the final result only when Live is nil for both providers'
	// own fetch and the aggregator finds nothing fresher.
	Stale *Observation
}

// AggregatedResult is the response payload for /aqi/current. It exposes the
// primary observation's fields plus both raw provider observations.
type AggregatedResult struct {
	AQI           *int     `json:"aqi"`
	PM25          *float64 `json:"pm25"`
	PM10          *float64 `json:"pm10"`
	Category      string   `json:"category"`
	HealthMessage string   `json:"health_message"`

	// SourceText is a human-readable description, e.g. "WAQI - Delhi US Embassy".
	SourceText  string `json:"source"`
	StationName string `json:"station_name,omitempty"`

	// PrimarySource is the machine-readable provider name, or "database"
	// for the fallback tiers.
	PrimarySource string `json:"primary_source"`

	WAQI   *Observation `json:"waqi"`
	OpenAQ *Observation `json:"openaq"`

	// Database fallback annotations. IsTestData marks a reading served from
	// the store rather than a live provider; never treated as authoritative.
	IsTestData   bool     `json:"is_test_data,omitempty"`
	DistanceKm   *float64 `json:"distance_km,omitempty"`
	LocationName string   `json:"location_name,omitempty"`
}

// StoredReading is a historical sensor reading persisted per location,
// used as the last-resort fallback tier.
type StoredReading struct {
	LocationID   int64
	LocationName string
	Latitude     float64
	Longitude    float64
	AQI          int
	PM25         *float64
	PM10         *float64
	RecordedAt   time.Time
}

// LocationReading is a stored reading joined with its location name,
// served by the per-location AQI endpoints.
type LocationReading struct {
	LocationName string    `json:"name"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	AQI          int       `json:"aqi"`
	PM25         *float64  `json:"pm25"`
	PM10         *float64  `json:"pm10"`
	RecordedAt   time.Time `json:"recorded_at"`

	Category      string `json:"category"`
	Color         string `json:"color"`
	HealthMessage string `json:"health_message"`
}
