package radarr_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"marquee/internal/config"
	"marquee/internal/request"
	"marquee/internal/services"
	"marquee/internal/services/radarr"
)

func newTestClient(url string) *radarr.Client {
	return radarr.New(config.ArrServer{
		ID:               "radarr-main",
		URL:              url,
		APIKey:           "secret",
		Enabled:          true,
		QualityProfileID: 4,
		RootDir:          "/movies",
	})
}

func TestSubmitLooksUpAndAdds(t *testing.T) {
	var addBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Fatalf("missing api key header")
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v3/movie/lookup/tmdb":
			if r.URL.Query().Get("tmdbId") != "603" {
				t.Fatalf("unexpected tmdbId: %s", r.URL.RawQuery)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"title":     "The Matrix",
				"titleSlug": "the-matrix-603",
				"year":      1999,
				"tmdbId":    603,
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/v3/movie":
			if err := json.NewDecoder(r.Body).Decode(&addBody); err != nil {
				t.Fatalf("decode add body: %v", err)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 42})
		default:
			t.Fatalf("unexpected call %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	req := &request.Request{ContentID: "603", Class: request.ClassMovie, TMDBID: "603"}
	id, err := client.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if id != "42" {
		t.Fatalf("expected acquisition id 42, got %q", id)
	}
	if addBody["qualityProfileId"].(float64) != 4 {
		t.Fatalf("unexpected quality profile: %v", addBody["qualityProfileId"])
	}
	if addBody["rootFolderPath"] != "/movies" {
		t.Fatalf("unexpected root folder: %v", addBody["rootFolderPath"])
	}
	if addBody["monitored"] != true {
		t.Fatal("expected monitored movie")
	}
}

func TestSubmitRequiresTMDBID(t *testing.T) {
	client := newTestClient("http://127.0.0.1:0")
	_, err := client.Submit(context.Background(), &request.Request{Class: request.ClassMovie})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	req := &request.Request{ContentID: "603", TMDBID: "603"}
	if _, err := client.Submit(context.Background(), req); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestRemoveDeletesWithoutFiles(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(context.Background())
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.Remove(context.Background(), "42"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if captured.Method != http.MethodDelete || captured.URL.Path != "/api/v3/movie/42" {
		t.Fatalf("unexpected request %s %s", captured.Method, captured.URL.Path)
	}
	if captured.URL.Query().Get("deleteFiles") != "false" {
		t.Fatalf("expected deleteFiles=false, got %s", captured.URL.RawQuery)
	}
}

func TestRemoveMissingMovie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.Remove(context.Background(), "42"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}
