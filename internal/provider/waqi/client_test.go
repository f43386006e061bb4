package waqi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/civicair/civicair/internal/aqi"
	"github.com/civicair/civicair/internal/provider/geocode"
	"github.com/civicair/civicair/internal/provider/waqi"
)

type fakeGeocoder struct {
	place geocode.Place
	err   error
}

func (g *fakeGeocoder) Reverse(context.Context, float64, float64) (geocode.Place, error) {
	return g.place, g.err
}

func newTestClient(t *testing.T, server *httptest.Server, geocoder waqi.Geocoder, clock clockwork.Clock) *waqi.Client {
	t.Helper()
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return waqi.NewClient(waqi.ClientConfig{
		BaseURL:    server.URL,
		APIKey:     "test-token",
		HTTPClient: server.Client(),
		Geocoder:   geocoder,
		Freshness:  aqi.NewFreshnessClassifier(0, clock),
		Logger:     zerolog.Nop(),
	})
}

func TestClient_FetchLiveObservation(t *testing.T) {
	now := time.Now().UTC().Add(-30 * time.Minute).Format("2006-01-02 15:04:05")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/feed/geo:") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("token") != "test-token" {
			t.Error("expected token query parameter")
		}
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"data": {
				"aqi": 160,
				"iaqi": {"pm25": {"v": 60}, "pm10": {"v": 40}},
				"city": {"name": "Anand Vihar, Delhi", "geo": [28.65, 77.31]},
				"time": {"s": "` + now + `"}
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, nil, nil)

	result, err := client.Fetch(context.Background(), 28.61, 77.21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Live == nil {
		t.Fatal("expected a live observation")
	}

	obs := result.Live
	// pm25=60 maps to CPCB 100, which overrides the provider-native 160.
	if obs.AQI != 100 {
		t.Errorf("expected recomputed index 100, got %d", obs.AQI)
	}
	if obs.AQIRaw == nil || *obs.AQIRaw != 160 {
		t.Errorf("expected raw index 160, got %v", obs.AQIRaw)
	}
	if obs.AQICPCB == nil || *obs.AQICPCB != 100 {
		t.Errorf("expected cpcb index 100, got %v", obs.AQICPCB)
	}
	if obs.StationName != "Anand Vihar, Delhi" {
		t.Errorf("unexpected station name %q", obs.StationName)
	}
	if obs.StationDistanceKm == nil {
		t.Fatal("expected a station distance")
	}
	if obs.Category != aqi.CategorySatisfactory {
		t.Errorf("expected category %q, got %q", aqi.CategorySatisfactory, obs.Category)
	}
	if obs.IsStale {
		t.Error("fresh observation must not be stale")
	}
}

func TestClient_FetchDistantStationUsesCityFallback(t *testing.T) {
	now := time.Now().UTC().Format("2006-01-02 15:04:05")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/feed/geo:") {
			// Station ~1150km away from the requested point.
			_, _ = w.Write([]byte(`{
				"status": "ok",
				"data": {
					"aqi": 80,
					"iaqi": {"pm25": {"v": 20}},
					"city": {"name": "Mumbai", "geo": [19.08, 72.88]},
					"time": {"s": "` + now + `"}
				}
			}`))
			return
		}
		if !strings.Contains(r.URL.Path, "New Delhi") {
			t.Errorf("unexpected city feed path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"data": {
				"aqi": 150,
				"iaqi": {"pm25": {"v": 90}},
				"city": {"name": "New Delhi"},
				"time": {"s": "` + now + `"}
			}
		}`))
	}))
	defer server.Close()

	geocoder := &fakeGeocoder{place: geocode.Place{City: "New Delhi", Region: "Delhi"}}
	client := newTestClient(t, server, geocoder, nil)

	result, err := client.Fetch(context.Background(), 28.61, 77.21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Live == nil {
		t.Fatal("expected the city fallback to produce a live observation")
	}
	if result.Live.StationName != "New Delhi" {
		t.Errorf("expected city station, got %q", result.Live.StationName)
	}
	// pm25=90 maps to CPCB 200.
	if result.Live.AQI != 200 {
		t.Errorf("expected index 200, got %d", result.Live.AQI)
	}
}

func TestClient_FetchGeoFeedErrorUsesCityFallback(t *testing.T) {
	now := time.Now().UTC().Format("2006-01-02 15:04:05")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/feed/geo:") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"data": {
				"aqi": 150,
				"iaqi": {"pm25": {"v": 90}},
				"city": {"name": "New Delhi"},
				"time": {"s": "` + now + `"}
			}
		}`))
	}))
	defer server.Close()

	geocoder := &fakeGeocoder{place: geocode.Place{City: "New Delhi", Region: "Delhi"}}
	client := newTestClient(t, server, geocoder, nil)

	result, err := client.Fetch(context.Background(), 28.61, 77.21)
	if err != nil {
		t.Fatalf("a failed geo feed must not abort the fetch: %v", err)
	}
	if result.Live == nil {
		t.Fatal("expected the city fallback to produce a live observation")
	}
	if result.Live.StationName != "New Delhi" {
		t.Errorf("expected city station, got %q", result.Live.StationName)
	}
}

func TestClient_FetchStaleCandidate(t *testing.T) {
	// Observation from 2018; clock set ~6 years later pushes it past the
	// freshness ceiling.
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"data": {
				"aqi": 120,
				"iaqi": {"pm25": {"v": 45}},
				"city": {"name": "Old Station", "geo": [28.62, 77.22]},
				"time": {"s": "2018-01-01 00:00:00"}
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, nil, clock)

	result, err := client.Fetch(context.Background(), 28.61, 77.21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Live != nil {
		t.Fatal("expected no live observation for ancient data")
	}
	if result.Stale == nil {
		t.Fatal("expected a stale candidate")
	}
	if !result.Stale.IsStale {
		t.Error("stale candidate must be marked stale")
	}
	if result.Stale.AgeHours == nil || *result.Stale.AgeHours <= aqi.DefaultMaxDataAgeHours {
		t.Errorf("expected age above the ceiling, got %v", result.Stale.AgeHours)
	}
}

func TestClient_FetchNoCoordinatesAccepted(t *testing.T) {
	now := time.Now().UTC().Format("2006-01-02 15:04:05")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"data": {
				"aqi": 70,
				"iaqi": {"pm25": {"v": 35}},
				"city": {"name": "Legacy Station"},
				"time": {"s": "` + now + `"}
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, nil, nil)

	result, err := client.Fetch(context.Background(), 28.61, 77.21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Live == nil {
		t.Fatal("station without coordinates must be accepted")
	}
	if result.Live.StationDistanceKm != nil {
		t.Error("no distance should be reported without station coordinates")
	}
}

func TestClient_FetchZeroCoordinateAccepted(t *testing.T) {
	now := time.Now().UTC().Format("2006-01-02 15:04:05")

	// A station reporting one zero coordinate (absent in the older feed
	// format) skips the distance check entirely.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"data": {
				"aqi": 70,
				"iaqi": {"pm25": {"v": 35}},
				"city": {"name": "Equator Station", "geo": [0, 77.22]},
				"time": {"s": "` + now + `"}
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, nil, nil)

	result, err := client.Fetch(context.Background(), 28.61, 77.21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Live == nil {
		t.Fatal("station with a zero coordinate must be accepted")
	}
	if result.Live.StationDistanceKm != nil {
		t.Error("no distance should be reported when a coordinate is missing")
	}
}

func TestClient_FetchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "error", "data": {}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, nil, nil)

	result, err := client.Fetch(context.Background(), 28.61, 77.21)
	if err != nil {
		t.Fatalf("non-ok status is no data, not an error: %v", err)
	}
	if result.Live != nil || result.Stale != nil {
		t.Error("expected an empty result")
	}
}

func TestClient_FetchUnknownIndex(t *testing.T) {
	now := time.Now().UTC().Format("2006-01-02 15:04:05")

	// "-" index and no concentrations: nothing to display.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"data": {
				"aqi": "-",
				"iaqi": {},
				"city": {"name": "Silent Station", "geo": [28.62, 77.22]},
				"time": {"s": "` + now + `"}
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, nil, nil)

	result, err := client.Fetch(context.Background(), 28.61, 77.21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Live != nil || result.Stale != nil {
		t.Error("expected no observation without any index")
	}
}
