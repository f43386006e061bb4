package geocode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civicair/civicair/internal/provider/geocode"
)

func TestClient_Reverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("zoom"); got != "10" {
			t.Errorf("expected zoom=10, got %q", got)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected a User-Agent header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"address":{"city":"New Delhi","state":"Delhi"}}`))
	}))
	defer server.Close()

	client := geocode.NewClient(geocode.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})

	place, err := client.Reverse(context.Background(), 28.61, 77.21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.City != "New Delhi" {
		t.Errorf("expected city New Delhi, got %q", place.City)
	}
	if place.Region != "Delhi" {
		t.Errorf("expected region Delhi, got %q", place.Region)
	}
}

func TestClient_ReverseTownFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"address":{"town":"Alwar","state":"Rajasthan"}}`))
	}))
	defer server.Close()

	client := geocode.NewClient(geocode.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})

	place, err := client.Reverse(context.Background(), 27.55, 76.63)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.City != "Alwar" {
		t.Errorf("expected town to fill City, got %q", place.City)
	}
}

func TestClient_ReverseErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := geocode.NewClient(geocode.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})

	if _, err := client.Reverse(context.Background(), 28.61, 77.21); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestPlace_Candidates(t *testing.T) {
	tests := []struct {
		name  string
		place geocode.Place
		want  []string
	}{
		{"city and region", geocode.Place{City: "Pune", Region: "Maharashtra"}, []string{"Pune, Maharashtra", "Pune"}},
		{"city only", geocode.Place{City: "Pune"}, []string{"Pune"}},
		{"empty", geocode.Place{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.place.Candidates()
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d candidates, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("candidate %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}
