// Package waqi provides a client for the World Air Quality Index API.
package waqi

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/civicair/civicair/internal/aqi"
	"github.com/civicair/civicair/internal/geo"
	"github.com/civicair/civicair/internal/provider/geocode"
	"github.com/civicair/civicair/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the WAQI API.
	DefaultBaseURL = "https://api.waqi.info"

	// ProviderName identifies this provider.
	ProviderName = "waqi"

	// maxStationDistanceKm rejects stations the geo feed resolved too far
	// from the requested point: WAQI falls back to whatever station it
	// indexed last, which can be on another continent.
	maxStationDistanceKm = 100
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Geocoder resolves coordinates to a named place for the city-feed retry.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (geocode.Place, error)
}

// ClientConfig holds configuration for the WAQI client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// APIKey is the WAQI token, passed as a query parameter.
	APIKey string

	// HTTPClient is the HTTP client to use. If nil, a default resilient
	// client is created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 5s).
	Timeout time.Duration

	// Geocoder powers the city-feed retry when the geo feed returns a
	// distant station. If nil, the retry is skipped.
	Geocoder Geocoder

	// Freshness classifies observation age. If nil, defaults are used.
	Freshness *aqi.FreshnessClassifier

	// Logger for fetch decisions.
	Logger zerolog.Logger
}

// Client is a WAQI API client implementing the aggregator's Provider
// interface.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
	geocoder   Geocoder
	freshness  *aqi.FreshnessClassifier
	logger     zerolog.Logger
}

// NewClient creates a new WAQI client.
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
		geocoder:   cfg.Geocoder,
		freshness:  freshness,
		logger:     cfg.Logger,
	}
}

// Source identifies this provider to the aggregator.
func (c *Client) Source() aqi.Source {
	return aqi.SourceWAQI
}

// API response types (from the WAQI feed endpoint).

type feedResponse struct {
	Status string   `json:"status"`
	Data   feedData `json:"data"`
}

type feedData struct {
	// AQI is usually a number but the API reports "-" for unknown.
	AQI  json.RawMessage      `json:"aqi"`
	IAQI map[string]iaqiValue `json:"iaqi"`
	City feedCity             `json:"city"`
	Time feedTime             `json:"time"`
}

type iaqiValue struct {
	V float64 `json:"v"`
}

type feedCity struct {
	Name string    `json:"name"`
	Geo  []float64 `json:"geo"`
}

type feedTime struct {
	S string `json:"s"`
}

// Fetch resolves an observation for the given point: first the geo feed, then
// a reverse-geocoded city feed when the geo feed resolved a station more than
// 100km away.
func (c *Client) Fetch(ctx context.Context, lat, lng float64) (aqi.FetchResult, error) {
	var result aqi.FetchResult

	feed, err := c.fetchFeed(ctx, fmt.Sprintf("geo:%f;%f", lat, lng))
	if err != nil {
		// The city fallback can still answer when the geo feed is down.
		c.logger.Warn().Err(err).Msg("waqi geo feed failed, trying city fallback")
		feed = nil
	}

	if feed != nil {
		obs, stale := c.buildObservation(feed, "")
		switch {
		case stale != nil:
			result.Stale = stale
		case obs != nil:
			if accepted := c.validateStation(feed, obs, lat, lng); accepted {
				result.Live = obs
			}
		}
	}

	if result.Live == nil {
		c.cityFallback(ctx, lat, lng, &result)
	}

	return result, nil
}

// fetchFeed queries one feed path, already escaped where needed. A non-ok API
// status is treated as no data, not an error.
func (c *Client) fetchFeed(ctx context.Context, feedPath string) (*feedData, error) {
	endpoint := fmt.Sprintf("%s/feed/%s/?token=%s", c.baseURL, feedPath, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from feed endpoint", resp.StatusCode)
	}

	var result feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode feed response: %w", err)
	}

	if result.Status != "ok" {
		c.logger.Debug().Str("feed", feedPath).Str("status", result.Status).Msg("waqi feed returned no data")
		return nil, nil
	}

	return &result.Data, nil
}

// buildObservation normalizes a feed into an observation, recomputing the
// CPCB index from concentrations when available. Returns the observation as
// stale when its age exceeds the freshness ceiling.
func (c *Client) buildObservation(feed *feedData, fallbackName string) (live, stale *aqi.Observation) {
	rawIndex := parseRawIndex(feed.AQI)
	pm25 := iaqiConcentration(feed.IAQI, "pm25")
	pm10 := iaqiConcentration(feed.IAQI, "pm10")

	cpcb := aqi.IndexFromConcentrations(pm25, pm10)
	display := cpcb
	if display == nil {
		display = rawIndex
	}
	if display == nil {
		return nil, nil
	}

	stationName := feed.City.Name
	if stationName == "" {
		stationName = fallbackName
	}

	age := c.freshness.AgeHours(feed.Time.S)
	category := aqi.CategoryFor(*display)
	obs := &aqi.Observation{
		AQI:           *display,
		AQIRaw:        rawIndex,
		AQICPCB:       cpcb,
		PM25:          pm25,
		PM10:          pm10,
		Category:      category.Label,
		HealthMessage: category.HealthMessage,
		StationName:   stationName,
		TimestampUTC:  feed.Time.S,
		AgeHours:      age,
		Source:        aqi.SourceWAQI,
	}

	if !c.freshness.IsFresh(age) {
		obs.IsStale = true
		return nil, obs
	}

	return obs, nil
}

// validateStation checks the geo feed's station against the requested point.
// A station missing either coordinate is accepted as-is (older feed format,
// where absent values come through as zero).
func (c *Client) validateStation(feed *feedData, obs *aqi.Observation, lat, lng float64) bool {
	if len(feed.City.Geo) < 2 || feed.City.Geo[0] == 0 || feed.City.Geo[1] == 0 {
		return true
	}

	distance := geo.DistanceKm(lat, lng, feed.City.Geo[0], feed.City.Geo[1])
	if distance >= maxStationDistanceKm {
		c.logger.Info().
			Str("station", obs.StationName).
			Float64("distance_km", distance).
			Msg("waqi geo feed resolved a distant station, rejecting")
		return false
	}

	rounded := math.Round(distance*10) / 10
	obs.StationDistanceKm = &rounded
	return true
}

// cityFallback retries via named city feeds resolved from the coordinates.
// Fills in the result's live or stale observation when a candidate matches.
func (c *Client) cityFallback(ctx context.Context, lat, lng float64, result *aqi.FetchResult) {
	if c.geocoder == nil {
		return
	}

	place, err := c.geocoder.Reverse(ctx, lat, lng)
	if err != nil {
		c.logger.Warn().Err(err).Msg("reverse geocode failed, skipping waqi city fallback")
		return
	}

	for _, candidate := range place.Candidates() {
		feed, err := c.fetchFeed(ctx, url.PathEscape(candidate))
		if err != nil {
			c.logger.Warn().Err(err).Str("candidate", candidate).Msg("waqi city feed fetch failed")
			continue
		}
		if feed == nil {
			continue
		}

		obs, stale := c.buildObservation(feed, candidate)
		if stale != nil {
			if result.Stale == nil {
				result.Stale = stale
			}
			continue
		}
		if obs != nil {
			// City feeds are accepted without a distance check: the
			// candidate name already anchors them to the area.
			c.logger.Info().Str("station", obs.StationName).Msg("waqi city fallback used")
			result.Live = obs
			return
		}
	}
}

// parseRawIndex extracts the provider-native index, which the API reports as
// a number or as "-" when unknown.
func parseRawIndex(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}

	var numeric float64
	if err := json.Unmarshal(raw, &numeric); err == nil {
		value := int(math.Round(numeric))
		return &value
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if parsed, err := strconv.ParseFloat(text, 64); err == nil {
			value := int(math.Round(parsed))
			return &value
		}
	}

	return nil
}

func iaqiConcentration(iaqi map[string]iaqiValue, key string) *float64 {
	if entry, ok := iaqi[key]; ok {
		value := entry.V
		return &value
	}
	return nil
}

// Ensure Client implements the aggregator's Provider interface.
var _ aqi.Provider = (*Client)(nil)
