package aqi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/civicair/civicair/internal/geo"
)

// Predefined aggregation errors.
var (
	// ErrInvalidCoordinates is returned for coordinates outside valid ranges.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// fallbackWindow bounds how old a stored reading may be before the database
// fallback tier refuses to serve it.
const fallbackWindow = 24 * time.Hour

// defaultProviderTimeout bounds one provider's full fetch, including the
// WAQI reverse-geocode and city retry legs (5s + 3s + 3s).
const defaultProviderTimeout = 12 * time.Second

// Provider is a live air-quality data source. Implementations absorb network
// and parse failures internally where possible; any returned error is logged
// by the aggregator and treated as no data, never surfaced to the caller.
type Provider interface {
	// Source identifies the provider in observations and logs.
	Source() Source

	// Fetch returns a live observation, a stale candidate, or neither for
	// the given point.
	Fetch(ctx context.Context, lat, lng float64) (FetchResult, error)
}

// ServiceConfig holds configuration for the aggregation service.
type ServiceConfig struct {
	// WAQI is the primary provider; its result wins when both respond.
	WAQI Provider

	// OpenAQ is the secondary provider.
	OpenAQ Provider

	// Readings is the store behind the database fallback tier and the
	// per-location endpoints.
	Readings ReadingRepository

	// Cache is the shared result cache. If nil, a cache with defaults is
	// created.
	Cache *ResultCache

	// ProviderTimeout bounds each provider fetch (default 12s).
	ProviderTimeout time.Duration

	// Clock for the fallback window; tests inject a fake.
	Clock clockwork.Clock

	// Logger for aggregation decisions.
	Logger zerolog.Logger
}

// Service aggregates live provider data into a single AQI result, degrading
// through live, stale, stored and unavailable tiers.
type Service struct {
	waqi            Provider
	openaq          Provider
	readings        ReadingRepository
	cache           *ResultCache
	providerTimeout time.Duration
	clock           clockwork.Clock
	logger          zerolog.Logger
}

// NewService creates an aggregation service.
func NewService(cfg ServiceConfig) *Service {
	cache := cfg.Cache
	if cache == nil {
		cache = NewResultCache(0, cfg.Clock)
	}

	timeout := cfg.ProviderTimeout
	if timeout == 0 {
		timeout = defaultProviderTimeout
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Service{
		waqi:            cfg.WAQI,
		openaq:          cfg.OpenAQ,
		readings:        cfg.Readings,
		cache:           cache,
		providerTimeout: timeout,
		clock:           clock,
		logger:          cfg.Logger,
	}
}

// CurrentAQI resolves the air quality at a point. Provider failures degrade
// silently through the fallback tiers; only a store failure in the final tier
// is returned as an error.
func (s *Service) CurrentAQI(ctx context.Context, lat, lng float64) (*AggregatedResult, error) {
	if err := geo.ValidateCoordinates(lat, lng); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCoordinates, err.Error())
	}

	key := geo.CellKey(lat, lng)
	if cached := s.cache.Get(key); cached != nil {
		s.logger.Debug().Str("cache_key", key).Msg("aqi cache hit")
		return cached, nil
	}

	waqiRes, openaqRes := s.fetchProviders(ctx, lat, lng)

	// Promote stale candidates independently per provider: old labeled data
	// beats no data, but only when that provider found nothing fresh.
	waqiObs := waqiRes.Live
	if waqiObs == nil && waqiRes.Stale != nil {
		s.logger.Info().Msg("promoting stale WAQI observation")
		waqiObs = waqiRes.Stale
	}
	openaqObs := openaqRes.Live
	if openaqObs == nil && openaqRes.Stale != nil {
		s.logger.Info().Msg("promoting stale OpenAQ observation")
		openaqObs = openaqRes.Stale
	}

	if waqiObs != nil || openaqObs != nil {
		result := buildLiveResult(waqiObs, openaqObs)
		s.cache.Set(key, result)
		s.logger.Info().
			Str("cache_key", key).
			Str("primary_source", result.PrimarySource).
			Msg("aggregated live aqi result")
		return result, nil
	}

	// Final tier: nearest stored reading. Never cached, so a provider
	// recovery is picked up on the next request.
	return s.databaseFallback(ctx, lat, lng)
}

// providerOutcome pairs a provider's fetch result with its error for the
// concurrent join.
type providerOutcome struct {
	result FetchResult
	err    error
	source Source
}

// fetchProviders queries both providers concurrently, each inside its own
// failure boundary and timeout so one provider's fault never affects the
// other's result.
func (s *Service) fetchProviders(ctx context.Context, lat, lng float64) (waqi, openaq FetchResult) {
	outcomes := make(chan providerOutcome, 2)

	fetch := func(p Provider) {
		// A panicking client must not take down the process or starve the
		// join below; it degrades to an empty outcome like any other failure.
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().
					Interface("panic", r).
					Str("provider", string(p.Source())).
					Msg("provider fetch panicked, treating as no data")
				outcomes <- providerOutcome{err: fmt.Errorf("provider panic: %v", r), source: p.Source()}
			}
		}()

		fetchCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
		defer cancel()

		res, err := p.Fetch(fetchCtx, lat, lng)
		outcomes <- providerOutcome{result: res, err: err, source: p.Source()}
	}

	go fetch(s.waqi)
	go fetch(s.openaq)

	for i := 0; i < 2; i++ {
		out := <-outcomes
		if out.err != nil {
			s.logger.Warn().
				Err(out.err).
				Str("provider", string(out.source)).
				Float64("lat", lat).
				Float64("lng", lng).
				Msg("provider fetch failed, treating as no data")
			continue
		}
		switch out.source {
		case SourceWAQI:
			waqi = out.result
		case SourceOpenAQ:
			openaq = out.result
		}
	}

	return waqi, openaq
}

// buildLiveResult assembles the response payload from whichever provider
// observations exist, preferring WAQI as primary.
func buildLiveResult(waqiObs, openaqObs *Observation) *AggregatedResult {
	primary := waqiObs
	if primary == nil {
		primary = openaqObs
	}

	sourceText := string(primary.Source)
	if primary.StationName != "" {
		sourceText = fmt.Sprintf("%s - %s", primary.Source, primary.StationName)
	}

	aqiValue := primary.AQI
	return &AggregatedResult{
		AQI:           &aqiValue,
		PM25:          primary.PM25,
		PM10:          primary.PM10,
		Category:      primary.Category,
		HealthMessage: primary.HealthMessage,
		SourceText:    sourceText,
		StationName:   primary.StationName,
		PrimarySource: string(primary.Source),
		WAQI:          waqiObs,
		OpenAQ:        openaqObs,
	}
}

// databaseFallback serves the nearest stored reading from the last 24 hours,
// labeled as test data, or an explicit unavailable placeholder.
func (s *Service) databaseFallback(ctx context.Context, lat, lng float64) (*AggregatedResult, error) {
	since := s.clock.Now().Add(-fallbackWindow)
	readings, err := s.readings.ListRecent(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("querying stored readings: %w", err)
	}

	if len(readings) == 0 {
		s.logger.Info().
			Float64("lat", lat).
			Float64("lng", lng).
			Msg("no provider data and no stored readings, returning unavailable")
		return unavailableResult(), nil
	}

	nearest := readings[0]
	minDistance := geo.DistanceKm(lat, lng, nearest.Latitude, nearest.Longitude)
	for _, r := range readings[1:] {
		if d := geo.DistanceKm(lat, lng, r.Latitude, r.Longitude); d < minDistance {
			minDistance = d
			nearest = r
		}
	}

	s.logger.Info().
		Str("location", nearest.LocationName).
		Float64("distance_km", minDistance).
		Msg("serving database fallback reading")

	category := CategoryFor(nearest.AQI)
	aqiValue := nearest.AQI
	distance := math.Round(minDistance*10) / 10
	return &AggregatedResult{
		AQI:           &aqiValue,
		PM25:          nearest.PM25,
		PM10:          nearest.PM10,
		Category:      category.Label,
		HealthMessage: category.HealthMessage,
		SourceText:    fmt.Sprintf("TEST DATA - Nearest Station: %s (%.1f km away)", nearest.LocationName, minDistance),
		LocationName:  nearest.LocationName,
		DistanceKm:    &distance,
		IsTestData:    true,
		PrimarySource: string(SourceDatabase),
	}, nil
}

// unavailableResult is the placeholder when every tier came up empty. Still a
// 200 response: absence of data is a valid answer, not a server fault.
func unavailableResult() *AggregatedResult {
	return &AggregatedResult{
		Category:      CategoryDataUnavailable,
		HealthMessage: "No AQI data available for your area",
		SourceText:    "System",
		PrimarySource: string(SourceDatabase),
	}
}

// LatestForLocation returns the newest stored reading for a location with its
// severity category attached.
func (s *Service) LatestForLocation(ctx context.Context, locationID int64) (*LocationReading, error) {
	reading, err := s.readings.LatestForLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	attachCategory(reading)
	return reading, nil
}

// LatestPerLocation returns the newest stored reading per location within the
// last 24 hours, each with its severity category attached.
func (s *Service) LatestPerLocation(ctx context.Context) ([]LocationReading, error) {
	since := s.clock.Now().Add(-fallbackWindow)
	readings, err := s.readings.LatestPerLocation(ctx, since)
	if err != nil {
		return nil, err
	}
	for i := range readings {
		attachCategory(&readings[i])
	}
	return readings, nil
}

func attachCategory(r *LocationReading) {
	category := CategoryFor(r.AQI)
	r.Category = category.Label
	r.Color = category.Color
	r.HealthMessage = category.HealthMessage
}
