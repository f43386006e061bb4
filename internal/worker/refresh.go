package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/civicair/civicair/internal/aqi"
	"github.com/civicair/civicair/internal/location"
)

// Fetcher resolves live air quality for a point. Satisfied by aqi.Service.
type Fetcher interface {
	CurrentAQI(ctx context.Context, lat, lng float64) (*aqi.AggregatedResult, error)
}

// RefreshJob ingests a fresh reading for every monitored location.
type RefreshJob struct {
	config    RefreshConfig
	logger    zerolog.Logger
	fetcher   Fetcher
	locations location.Repository
	readings  aqi.ReadingRepository

	metrics *RefreshMetrics
}

// RefreshMetrics tracks ingestion job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns        int64
	IngestedReadings int64
	SkippedLocations int64
	FailedLocations  int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config    RefreshConfig
	Logger    zerolog.Logger
	Fetcher   Fetcher
	Locations location.Repository
	Readings  aqi.ReadingRepository
}

// NewRefreshJob creates a new ingestion job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if config == (RefreshConfig{}) {
		config = DefaultRefreshConfig()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultRefreshConfig().Concurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultRefreshConfig().Timeout
	}

	return &RefreshJob{
		config:    config,
		logger:    cfg.Logger,
		fetcher:   cfg.Fetcher,
		locations: cfg.Locations,
		readings:  cfg.Readings,
		metrics:   &RefreshMetrics{},
	}
}

// RefreshResult contains the result of one ingestion run.
type RefreshResult struct {
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalLocations int
	Ingested       int
	Skipped        int
	Failed         int
	Errors         []RefreshError
}

// RefreshError records one location's failure.
type RefreshError struct {
	LocationID int64
	Location   string
	Error      string
}

// Run fetches and stores a reading for every monitored location with
// coordinates.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{StartTime: startTime}

	locations, err := j.locations.List(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("listing locations for ingestion failed")
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		j.updateMetrics(result)
		return result
	}
	result.TotalLocations = len(locations)

	j.logger.Info().
		Int("locations", len(locations)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting reading ingestion job")

	// Create work channels
	locationsChan := make(chan location.Location, len(locations))
	resultsChan := make(chan locationResult, len(locations))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.ingestWorker(ctx, locationsChan, resultsChan)
		}()
	}

	// Send locations to workers
	for _, loc := range locations {
		locationsChan <- loc
	}
	close(locationsChan)

	// Wait for workers to complete
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Collect results
	for lr := range resultsChan {
		switch lr.outcome {
		case outcomeIngested:
			result.Ingested++
		case outcomeSkipped:
			result.Skipped++
		case outcomeFailed:
			result.Failed++
			result.Errors = append(result.Errors, lr.err)
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("ingested", result.Ingested).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("reading ingestion job completed")

	return result
}

type ingestOutcome int

const (
	outcomeIngested ingestOutcome = iota
	outcomeSkipped
	outcomeFailed
)

type locationResult struct {
	outcome ingestOutcome
	err     RefreshError
}

func (j *RefreshJob) ingestWorker(ctx context.Context, locations <-chan location.Location, results chan<- locationResult) {
	for loc := range locations {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.ingestLocation(ctx, loc)
		}
	}
}

func (j *RefreshJob) ingestLocation(ctx context.Context, loc location.Location) locationResult {
	if loc.Latitude == nil || loc.Longitude == nil {
		j.logger.Debug().Int64("location_id", loc.ID).Msg("location has no coordinates, skipping")
		return locationResult{outcome: outcomeSkipped}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	result, err := j.fetcher.CurrentAQI(fetchCtx, *loc.Latitude, *loc.Longitude)
	if err != nil {
		return locationResult{
			outcome: outcomeFailed,
			err:     RefreshError{LocationID: loc.ID, Location: loc.Name, Error: err.Error()},
		}
	}

	if result.AQI == nil {
		j.logger.Debug().Int64("location_id", loc.ID).Msg("no data for location, skipping")
		return locationResult{outcome: outcomeSkipped}
	}
	if result.IsTestData && j.config.SkipFallbackData {
		// A fallback result came from this very store.
		return locationResult{outcome: outcomeSkipped}
	}

	reading := aqi.StoredReading{
		LocationID:   loc.ID,
		LocationName: loc.Name,
		Latitude:     *loc.Latitude,
		Longitude:    *loc.Longitude,
		AQI:          *result.AQI,
		PM25:         result.PM25,
		PM10:         result.PM10,
		RecordedAt:   time.Now().UTC(),
	}
	if err := j.readings.Insert(ctx, reading); err != nil {
		return locationResult{
			outcome: outcomeFailed,
			err:     RefreshError{LocationID: loc.ID, Location: loc.Name, Error: err.Error()},
		}
	}

	return locationResult{outcome: outcomeIngested}
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.IngestedReadings += int64(result.Ingested)
	j.metrics.SkippedLocations += int64(result.Skipped)
	j.metrics.FailedLocations += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:        j.metrics.TotalRuns,
		IngestedReadings: j.metrics.IngestedReadings,
		SkippedLocations: j.metrics.SkippedLocations,
		FailedLocations:  j.metrics.FailedLocations,
		LastRunAt:        j.metrics.LastRunAt,
		LastRunDuration:  j.metrics.LastRunDuration,
		TotalDuration:    j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns the current metrics as a map for the health
// endpoint.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"ingested_readings": m.IngestedReadings,
		"skipped_locations": m.SkippedLocations,
		"failed_locations":  m.FailedLocations,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
