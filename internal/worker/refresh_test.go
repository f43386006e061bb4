package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicair/civicair/internal/aqi"
	"github.com/civicair/civicair/internal/location"
)

// stubFetcher returns a canned result per coordinate pair.
type stubFetcher struct {
	mu      sync.Mutex
	calls   int
	results map[[2]float64]*aqi.AggregatedResult
	err     error
}

func (f *stubFetcher) CurrentAQI(_ context.Context, lat, lng float64) (*aqi.AggregatedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if result, ok := f.results[[2]float64{lat, lng}]; ok {
		return result, nil
	}
	return &aqi.AggregatedResult{}, nil
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func testLocations() []location.Location {
	return []location.Location{
		{ID: 1, Name: "Anand Vihar", Latitude: floatPtr(28.65), Longitude: floatPtr(77.32)},
		{ID: 2, Name: "Lodhi Road", Latitude: floatPtr(28.59), Longitude: floatPtr(77.23)},
	}
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := DefaultRefreshConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.SkipFallbackData)
}

func TestRefreshJob_IngestsAllLocations(t *testing.T) {
	fetcher := &stubFetcher{
		results: map[[2]float64]*aqi.AggregatedResult{
			{28.65, 77.32}: {AQI: intPtr(180), PM25: floatPtr(95), PrimarySource: "waqi"},
			{28.59, 77.23}: {AQI: intPtr(62), PM25: floatPtr(30), PrimarySource: "openaq"},
		},
	}
	readings := aqi.NewMemoryReadingRepository()

	job := NewRefreshJob(RefreshJobConfig{
		Logger:    zerolog.Nop(),
		Fetcher:   fetcher,
		Locations: location.NewMemoryRepository(testLocations()),
		Readings:  readings,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 2, result.TotalLocations)
	assert.Equal(t, 2, result.Ingested)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 2, fetcher.callCount())

	stored, err := readings.ListRecent(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, stored, 2)

	reading, err := readings.LatestForLocation(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Anand Vihar", reading.LocationName)
	assert.Equal(t, 180, reading.AQI)
}

func TestRefreshJob_SkipsLocationsWithoutCoordinates(t *testing.T) {
	locations := []location.Location{
		{ID: 1, Name: "Anand Vihar", Latitude: floatPtr(28.65), Longitude: floatPtr(77.32)},
		{ID: 2, Name: "Unplaced"},
	}
	fetcher := &stubFetcher{
		results: map[[2]float64]*aqi.AggregatedResult{
			{28.65, 77.32}: {AQI: intPtr(120)},
		},
	}

	job := NewRefreshJob(RefreshJobConfig{
		Logger:    zerolog.Nop(),
		Fetcher:   fetcher,
		Locations: location.NewMemoryRepository(locations),
		Readings:  aqi.NewMemoryReadingRepository(),
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Ingested)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, fetcher.callCount())
}

func TestRefreshJob_SkipsFallbackResults(t *testing.T) {
	// The database fallback tier must never feed the store.
	fetcher := &stubFetcher{
		results: map[[2]float64]*aqi.AggregatedResult{
			{28.65, 77.32}: {AQI: intPtr(150), IsTestData: true},
			{28.59, 77.23}: {AQI: intPtr(80)},
		},
	}
	readings := aqi.NewMemoryReadingRepository()

	job := NewRefreshJob(RefreshJobConfig{
		Logger:    zerolog.Nop(),
		Fetcher:   fetcher,
		Locations: location.NewMemoryRepository(testLocations()),
		Readings:  readings,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Ingested)
	assert.Equal(t, 1, result.Skipped)

	stored, err := readings.ListRecent(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, int64(2), stored[0].LocationID)
}

func TestRefreshJob_IngestsFallbackWhenConfigured(t *testing.T) {
	fetcher := &stubFetcher{
		results: map[[2]float64]*aqi.AggregatedResult{
			{28.65, 77.32}: {AQI: intPtr(150), IsTestData: true},
		},
	}
	readings := aqi.NewMemoryReadingRepository()

	job := NewRefreshJob(RefreshJobConfig{
		Config: RefreshConfig{
			Concurrency:      1,
			Timeout:          time.Second,
			SkipFallbackData: false,
		},
		Logger:    zerolog.Nop(),
		Fetcher:   fetcher,
		Locations: location.NewMemoryRepository(testLocations()[:1]),
		Readings:  readings,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Ingested)
	assert.Equal(t, 0, result.Skipped)
}

func TestRefreshJob_SkipsEmptyResults(t *testing.T) {
	// A nil AQI means no provider and no fallback had data.
	fetcher := &stubFetcher{}

	job := NewRefreshJob(RefreshJobConfig{
		Logger:    zerolog.Nop(),
		Fetcher:   fetcher,
		Locations: location.NewMemoryRepository(testLocations()),
		Readings:  aqi.NewMemoryReadingRepository(),
	})

	result := job.Run(context.Background())

	assert.Equal(t, 0, result.Ingested)
	assert.Equal(t, 2, result.Skipped)
}

func TestRefreshJob_RecordsFailures(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("provider unavailable")}

	job := NewRefreshJob(RefreshJobConfig{
		Logger:    zerolog.Nop(),
		Fetcher:   fetcher,
		Locations: location.NewMemoryRepository(testLocations()),
		Readings:  aqi.NewMemoryReadingRepository(),
	})

	result := job.Run(context.Background())

	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0].Error, "provider unavailable")
}

func TestRefreshJob_Metrics(t *testing.T) {
	fetcher := &stubFetcher{
		results: map[[2]float64]*aqi.AggregatedResult{
			{28.65, 77.32}: {AQI: intPtr(180)},
			{28.59, 77.23}: {AQI: intPtr(62)},
		},
	}

	job := NewRefreshJob(RefreshJobConfig{
		Logger:    zerolog.Nop(),
		Fetcher:   fetcher,
		Locations: location.NewMemoryRepository(testLocations()),
		Readings:  aqi.NewMemoryReadingRepository(),
	})

	job.Run(context.Background())
	job.Run(context.Background())

	metrics := job.GetMetrics()
	assert.Equal(t, int64(2), metrics.TotalRuns)
	assert.Equal(t, int64(4), metrics.IngestedReadings)
	assert.False(t, metrics.LastRunAt.IsZero())

	snapshot := job.MetricsSnapshot()
	assert.Equal(t, int64(2), snapshot["total_runs"])
	assert.Equal(t, int64(4), snapshot["ingested_readings"])
}

func TestRefreshJob_AppliesConfigDefaults(t *testing.T) {
	job := NewRefreshJob(RefreshJobConfig{
		Config:    RefreshConfig{Concurrency: -1},
		Logger:    zerolog.Nop(),
		Fetcher:   &stubFetcher{},
		Locations: location.NewMemoryRepository(nil),
		Readings:  aqi.NewMemoryReadingRepository(),
	})

	assert.Equal(t, 3, job.config.Concurrency)
	assert.Equal(t, 30*time.Second, job.config.Timeout)
}
