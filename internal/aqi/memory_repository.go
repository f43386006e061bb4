package aqi

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryReadingRepository is an in-memory ReadingRepository for tests and
// local development.
type MemoryReadingRepository struct {
	mu       sync.RWMutex
	readings []StoredReading
}

// NewMemoryReadingRepository creates an empty in-memory repository.
func NewMemoryReadingRepository() *MemoryReadingRepository {
	return &MemoryReadingRepository{}
}

// Seed replaces the stored readings.
func (r *MemoryReadingRepository) Seed(readings []StoredReading) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings = append([]StoredReading(nil), readings...)
}

// LatestForLocation returns the most recent reading for one location.
func (r *MemoryReadingRepository) LatestForLocation(_ context.Context, locationID int64) (*LocationReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *StoredReading
	for i := range r.readings {
		reading := &r.readings[i]
		if reading.LocationID != locationID {
			continue
		}
		if latest == nil || reading.RecordedAt.After(latest.RecordedAt) {
			latest = reading
		}
	}
	if latest == nil {
		return nil, ErrReadingNotFound
	}

	return toLocationReading(latest), nil
}

// LatestPerLocation returns the newest reading per location since the cutoff.
func (r *MemoryReadingRepository) LatestPerLocation(_ context.Context, since time.Time) ([]LocationReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latestByLocation := make(map[int64]*StoredReading)
	for i := range r.readings {
		reading := &r.readings[i]
		if reading.RecordedAt.Before(since) {
			continue
		}
		current, ok := latestByLocation[reading.LocationID]
		if !ok || reading.RecordedAt.After(current.RecordedAt) {
			latestByLocation[reading.LocationID] = reading
		}
	}

	result := make([]LocationReading, 0, len(latestByLocation))
	for _, reading := range latestByLocation {
		result = append(result, *toLocationReading(reading))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RecordedAt.After(result[j].RecordedAt)
	})

	return result, nil
}

// ListRecent returns all readings since the cutoff, newest first.
func (r *MemoryReadingRepository) ListRecent(_ context.Context, since time.Time) ([]StoredReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []StoredReading
	for _, reading := range r.readings {
		if !reading.RecordedAt.Before(since) {
			result = append(result, reading)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RecordedAt.After(result[j].RecordedAt)
	})

	return result, nil
}

// Insert stores a new reading.
func (r *MemoryReadingRepository) Insert(_ context.Context, reading StoredReading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings = append(r.readings, reading)
	return nil
}

func toLocationReading(reading *StoredReading) *LocationReading {
	lat := reading.Latitude
	lng := reading.Longitude
	return &LocationReading{
		LocationName: reading.LocationName,
		Latitude:     &lat,
		Longitude:    &lng,
		AQI:          reading.AQI,
		PM25:         reading.PM25,
		PM10:         reading.PM10,
		RecordedAt:   reading.RecordedAt,
	}
}

// Ensure MemoryReadingRepository implements ReadingRepository.
var _ ReadingRepository = (*MemoryReadingRepository)(nil)
