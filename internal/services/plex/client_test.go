package plex_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"marquee/internal/config"
	"marquee/internal/services"
	"marquee/internal/services/plex"
)

func newTestClient(url string) *plex.Client {
	cfg := config.Default()
	cfg.Plex.Enabled = true
	cfg.Plex.URL = url
	cfg.Plex.Token = "plex-token"
	return plex.New(&cfg)
}

func TestServerInfoReturnsSamples(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/statistics/resources" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("timespan") != "6" {
			t.Fatalf("unexpected timespan: %s", r.URL.RawQuery)
		}
		if r.Header.Get("X-Plex-Token") != "plex-token" {
			t.Fatal("missing plex token header")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"MediaContainer": map[string]any{
				"StatisticsResources": []map[string]any{
					{"at": 1700000000, "hostCpuUtilization": 12.5},
				},
			},
		})
	}))
	defer server.Close()

	samples, err := newTestClient(server.URL).ServerInfo(context.Background())
	if err != nil {
		t.Fatalf("ServerInfo failed: %v", err)
	}
	if len(samples) != 1 || samples[0].HostCPU != 12.5 {
		t.Fatalf("unexpected samples: %+v", samples)
	}
}

func TestServerInfoRejectedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).ServerInfo(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewDisabled(t *testing.T) {
	cfg := config.Default()
	if client := plex.New(&cfg); client != nil {
		t.Fatal("expected nil client when plex is disabled")
	}
}
