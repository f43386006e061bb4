// Package geocode provides reverse geocoding via the Nominatim API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/civicair/civicair/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the Nominatim API.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// ProviderName identifies this provider.
	ProviderName = "nominatim"

	// defaultTimeout keeps the geocode leg short; it only feeds a retry
	// heuristic and must not stall the whole aggregation.
	defaultTimeout = 3 * time.Second

	// userAgent identifies us to Nominatim, which rejects anonymous clients.
	userAgent = "civicair/1.0"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use. If nil, a default resilient
	// client is created.
	HTTPClient HTTPDoer

	// Timeout for individual requests (default: 3s).
	Timeout time.Duration
}

// Client is a Nominatim reverse geocoding client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:    ProviderName,
			Timeout: timeout,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

type reverseResponse struct {
	Address addressData `json:"address"`
}

type addressData struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	County  string `json:"county"`
	State   string `json:"state"`
}

// Place is a reverse geocoding result.
type Place struct {
	// City is the settlement name, from the most specific of city, town,
	// village or county.
	City string

	// Region is the state or province.
	Region string
}

// Candidates returns search strings to try against station indexes, most
// specific first.
func (p Place) Candidates() []string {
	if p.City == "" {
		return nil
	}
	if p.Region == "" {
		return []string{p.City}
	}
	return []string{fmt.Sprintf("%s, %s", p.City, p.Region), p.City}
}

// Reverse resolves coordinates to a named place at city granularity.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (Place, error) {
	query := url.Values{}
	query.Set("format", "json")
	query.Set("lat", fmt.Sprintf("%f", lat))
	query.Set("lon", fmt.Sprintf("%f", lng))
	query.Set("zoom", "10")

	endpoint := fmt.Sprintf("%s/reverse?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return Place{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("unexpected status %d from reverse endpoint", resp.StatusCode)
	}

	var result reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Place{}, fmt.Errorf("decode reverse response: %w", err)
	}

	return Place{
		City:   firstNonEmpty(result.Address.City, result.Address.Town, result.Address.Village, result.Address.County),
		Region: result.Address.State,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
