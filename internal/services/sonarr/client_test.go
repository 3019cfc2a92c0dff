package sonarr_test

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
	"marquee/internal/services/sonarr"
)

func newTestClient(url string) *sonarr.Client {
	return sonarr.New(config.ArrServer{
		ID:               "sonarr-main",
		URL:              url,
		APIKey:           "secret",
		Enabled:          true,
		QualityProfileID: 2,
		RootDir:          "/tv",
	})
}

func TestSubmitLooksUpAndAdds(t *testing.T) {
	var addBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v3/series/lookup":
			if r.URL.Query().Get("term") != "tvdb:81189" {
				t.Fatalf("unexpected lookup term: %s", r.URL.RawQuery)
			}
			_ = json.NewEncoder(w).Encode([]map[string]any{{
				"title":     "Breaking Bad",
				"titleSlug": "breaking-bad",
				"year":      2008,
				"tvdbId":    81189,
			}})
		case r.Method == http.MethodPost && r.URL.Path == "/api/v3/series":
			if err := json.NewDecoder(r.Body).Decode(&addBody); err != nil {
				t.Fatalf("decode add body: %v", err)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 7})
		default:
			t.Fatalf("unexpected call %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	req := &request.Request{ContentID: "81189", Class: request.ClassSeries, TVDBID: "81189"}
	id, err := client.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if id != "7" {
		t.Fatalf("expected acquisition id 7, got %q", id)
	}
	if addBody["seasonFolder"] != true {
		t.Fatal("expected season folders enabled")
	}
	if addBody["rootFolderPath"] != "/tv" {
		t.Fatalf("unexpected root folder: %v", addBody["rootFolderPath"])
	}
}

func TestSubmitNoLookupMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	req := &request.Request{ContentID: "81189", TVDBID: "81189"}
	if _, err := client.Submit(context.Background(), req); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestRemoveKeepsFiles(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(context.Background())
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.Remove(context.Background(), "7"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if captured.URL.Path != "/api/v3/series/7" {
		t.Fatalf("unexpected path %s", captured.URL.Path)
	}
	if captured.URL.Query().Get("deleteFiles") != "false" {
		t.Fatalf("expected deleteFiles=false, got %s", captured.URL.RawQuery)
	}
}
