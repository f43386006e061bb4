package aqi

import (
	"context"
	"errors"
	"time"
)

// ErrReadingNotFound is returned when no stored reading exists for a location.
var ErrReadingNotFound = errors.New("aqi reading not found")

// ReadingRepository is the persistence interface for historical AQI readings.
// The aggregation core only ever reads from it; the ingest worker writes.
type ReadingRepository interface {
	// LatestForLocation returns the most recent reading for one location.
	LatestForLocation(ctx context.Context, locationID int64) (*LocationReading, error)

	// LatestPerLocation returns the most recent reading per location,
	// limited to readings recorded at or after since.
	LatestPerLocation(ctx context.Context, since time.Time) ([]LocationReading, error)

	// ListRecent returns all readings with known coordinates recorded at or
	// after since, newest first. Used by the database fallback tier.
	ListRecent(ctx context.Context, since time.Time) ([]StoredReading, error)

	// Insert stores a new reading for a location.
	Insert(ctx context.Context, reading StoredReading) error
}
