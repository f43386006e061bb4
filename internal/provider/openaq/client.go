// Package openaq provides a client for the OpenAQ v3 API.
package openaq

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/civicair/civicair/internal/aqi"
	"github.com/civicair/civicair/internal/geo"
	"github.com/civicair/civicair/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the OpenAQ v3 API.
	DefaultBaseURL = "https://api.openaq.org"

	// ProviderName identifies this provider.
	ProviderName = "openaq"

	// searchRadiusMeters is the station search radius (v3 maximum is 25km).
	searchRadiusMeters = 25000

	// searchLimit caps how many nearby stations are tried per fetch.
	searchLimit = 3

	// pm25ParameterID filters the station search to PM2.5-capable stations.
	pm25ParameterID = 2

	// userAgent identifies us to the OpenAQ API.
	userAgent = "civicair/1.0"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenAQ client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// APIKey is sent in the X-API-Key header; v3 rejects anonymous calls.
	APIKey string

	// HTTPClient is the HTTP client to use. If nil, a default resilient
	// client is created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 5s).
	Timeout time.Duration

	// Freshness classifies measurement age. If nil, defaults are used.
	Freshness *aqi.FreshnessClassifier

	// Logger for fetch decisions.
	Logger zerolog.Logger
}

// Client is an OpenAQ v3 API client implementing the aggregator's Provider
// interface.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
	freshness  *aqi.FreshnessClassifier
	logger     zerolog.Logger
}

// NewClient creates a new OpenAQ client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 5 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:    ProviderName,
			Timeout: timeout,
		})
	}

	freshness := cfg.Freshness
	if freshness == nil {
		freshness = aqi.NewFreshnessClassifier(0, nil)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		freshness:  freshness,
		logger:     cfg.Logger,
	}
}

// Source identifies this provider to the aggregator.
func (c *Client) Source() aqi.Source {
	return aqi.SourceOpenAQ
}

// API response types (from the OpenAQ v3 API).

type locationsResponse struct {
	Results []locationResult `json:"results"`
}

type locationResult struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Coordinates *coordinatesData `json:"coordinates"`
	Sensors     []sensorData     `json:"sensors"`
}

type coordinatesData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type sensorData struct {
	ID        int64         `json:"id"`
	Parameter parameterData `json:"parameter"`
}

type parameterData struct {
	Name string `json:"name"`
}

type latestResponse struct {
	Results []latestResult `json:"results"`
}

type latestResult struct {
	Value     float64      `json:"value"`
	SensorsID int64        `json:"sensorsId"`
	Datetime  datetimeData `json:"datetime"`
}

type datetimeData struct {
	UTC string `json:"utc"`
}

// Fetch queries the nearest PM2.5-capable stations and normalizes the first
// one with usable measurements into an observation.
func (c *Client) Fetch(ctx context.Context, lat, lng float64) (aqi.FetchResult, error) {
	locations, err := c.searchLocations(ctx, lat, lng)
	if err != nil {
		return aqi.FetchResult{}, err
	}

	// The API's own ordering is unreliable; sort by true distance so the
	// closest station wins.
	sort.SliceStable(locations, func(i, j int) bool {
		return locationDistanceKm(lat, lng, &locations[i]) < locationDistanceKm(lat, lng, &locations[j])
	})

	var result aqi.FetchResult
	for i := range locations {
		location := &locations[i]
		obs, stale, err := c.fetchStationObservation(ctx, lat, lng, location)
		if err != nil {
			c.logger.Warn().Err(err).Str("station", location.Name).Msg("openaq latest fetch failed, trying next station")
			continue
		}
		if obs != nil {
			result.Live = obs
			break
		}
		if stale != nil && result.Stale == nil {
			result.Stale = stale
		}
	}

	return result, nil
}

// searchLocations finds PM2.5-capable stations within the search radius.
func (c *Client) searchLocations(ctx context.Context, lat, lng float64) ([]locationResult, error) {
	endpoint := fmt.Sprintf("%s/v3/locations?coordinates=%f,%f&radius=%d&limit=%d&parameters_id=%d",
		c.baseURL, lat, lng, searchRadiusMeters, searchLimit, pm25ParameterID)

	var result locationsResponse
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("search locations: %w", err)
	}

	return result.Results, nil
}

// fetchStationObservation pulls one station's latest measurements and
// normalizes them. Stale measurements become a candidate only when the
// station has nothing fresh.
func (c *Client) fetchStationObservation(ctx context.Context, lat, lng float64, location *locationResult) (live, stale *aqi.Observation, err error) {
	endpoint := fmt.Sprintf("%s/v3/locations/%d/latest", c.baseURL, location.ID)

	var result latestResponse
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, nil, fmt.Errorf("fetch latest measurements: %w", err)
	}

	sensors := make(map[int64]string, len(location.Sensors))
	for _, s := range location.Sensors {
		if s.Parameter.Name != "" {
			sensors[s.ID] = s.Parameter.Name
		}
	}

	var (
		pm25, pm10           *float64
		bestTime             *time.Time
		bestAge              *float64
		stalePM25, stalePM10 *float64
		staleTime            *time.Time
		staleAge             *float64
	)

	for _, m := range result.Results {
		// Non-positive and implausibly high values are sensor glitches.
		if m.Value <= 0 || m.Value >= 500 {
			continue
		}

		parameter, known := sensors[m.SensorsID]
		if known && parameter != "pm25" && parameter != "pm10" {
			continue
		}

		ts, parsed := aqi.ParseTimestamp(m.Datetime.UTC)
		age := c.freshness.AgeHours(m.Datetime.UTC)

		if !c.freshness.IsFresh(age) {
			// Track the least-stale rejected measurements per pollutant.
			if staleAge == nil || (age != nil && *age < *staleAge) {
				staleAge = age
				if parsed {
					staleTime = &ts
				}
				value := m.Value
				if parameter == "pm10" {
					stalePM10 = &value
				} else {
					stalePM25 = &value
				}
			}
			continue
		}

		if parsed && (bestTime == nil || ts.After(*bestTime)) {
			bestTime = &ts
			bestAge = age
		}

		value := m.Value
		if parameter == "pm10" {
			pm10 = &value
		} else {
			pm25 = &value
		}
	}

	if pm25 != nil || pm10 != nil {
		obs := c.buildObservation(lat, lng, location, pm25, pm10, bestTime, bestAge, false)
		return obs, nil, nil
	}
	if stalePM25 != nil || stalePM10 != nil {
		obs := c.buildObservation(lat, lng, location, stalePM25, stalePM10, staleTime, staleAge, true)
		return nil, obs, nil
	}

	return nil, nil, nil
}

// buildObservation computes the CPCB index for a station's concentrations.
// Returns nil when no index is computable.
func (c *Client) buildObservation(lat, lng float64, location *locationResult, pm25, pm10 *float64, ts *time.Time, age *float64, isStale bool) *aqi.Observation {
	index := aqi.IndexFromConcentrations(pm25, pm10)
	if index == nil {
		return nil
	}

	stationName := location.Name
	if stationName == "" {
		stationName = "OpenAQ Station"
	}

	var timestamp string
	if ts != nil {
		timestamp = ts.UTC().Format(time.RFC3339)
	}

	category := aqi.CategoryFor(*index)
	obs := &aqi.Observation{
		AQI:           *index,
		AQICPCB:       index,
		PM25:          pm25,
		PM10:          pm10,
		Category:      category.Label,
		HealthMessage: category.HealthMessage,
		StationName:   stationName,
		TimestampUTC:  timestamp,
		AgeHours:      age,
		IsStale:       isStale,
		Source:        aqi.SourceOpenAQ,
	}

	if distance := locationDistanceKm(lat, lng, location); !math.IsInf(distance, 1) {
		rounded := math.Round(distance*10) / 10
		obs.StationDistanceKm = &rounded
	}

	return obs
}

// getJSON executes an authenticated GET and decodes the response body.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func locationDistanceKm(lat, lng float64, location *locationResult) float64 {
	if location.Coordinates == nil {
		return math.Inf(1)
	}
	return geo.DistanceKm(lat, lng, location.Coordinates.Latitude, location.Coordinates.Longitude)
}

// Ensure Client implements the aggregator's Provider interface.
var _ aqi.Provider = (*Client)(nil)
