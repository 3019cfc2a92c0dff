package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"marquee/internal/config"
	"marquee/internal/logging"
)

const userAgent = "Marquee/0.1.0"

// Client queries The Movie Database search endpoints.
type Client struct {
	baseURL  string
	apiKey   string
	language string
	client   *http.Client
	logger   *slog.Logger
}

// New builds a TMDB client from config.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.TMDB.BaseURL, "/"),
		apiKey:   cfg.TMDB.APIKey,
		language: cfg.TMDB.Language,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logging.WithComponent(logger, "tmdb"),
	}
}

// Entry is a single search hit. Title is populated for movies, Name for
// shows, people, and companies.
type Entry struct {
	ID           int64  `json:"id"`
	Title        string `json:"title,omitempty"`
	Name         string `json:"name,omitempty"`
	Overview     string `json:"overview,omitempty"`
	PosterPath   string `json:"poster_path,omitempty"`
	ProfilePath  string `json:"profile_path,omitempty"`
	LogoPath     string `json:"logo_path,omitempty"`
	ReleaseDate  string `json:"release_date,omitempty"`
	FirstAirDate string `json:"first_air_date,omitempty"`
}

// Results groups search hits by kind.
type Results struct {
	Movies    []Entry `json:"movies"`
	Shows     []Entry `json:"shows"`
	People    []Entry `json:"people"`
	Companies []Entry `json:"companies"`
}

// Search runs all four TMDB search kinds in parallel. A failure in one kind
// degrades to an empty result set for that kind; the term itself being empty
// is the only hard error.
func (c *Client) Search(ctx context.Context, term string) (*Results, error) {
	normalized := NormalizeTerm(term)
	if normalized == "" {
		return nil, fmt.Errorf("search term is empty")
	}

	results := &Results{}
	var g errgroup.Group
	for _, kind := range []struct {
		path string
		dest *[]Entry
	}{
		{"search/movie", &results.Movies},
		{"search/tv", &results.Shows},
		{"search/person", &results.People},
		{"search/company", &results.Companies},
	} {
		g.Go(func() error {
			entries, err := c.searchKind(ctx, kind.path, normalized)
			if err != nil {
				c.logger.Warn("search kind failed",
					logging.String("kind", kind.path),
					logging.String("term", normalized),
					logging.Error(err))
				return nil
			}
			*kind.dest = entries
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (c *Client) searchKind(ctx context.Context, path, term string) ([]Entry, error) {
	query := url.Values{}
	query.Set("query", term)
	query.Set("language", c.language)
	query.Set("include_adult", "false")
	query.Set("api_key", c.apiKey)

	target := fmt.Sprintf("%s/%s?%s", c.baseURL, path, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("tmdb returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var payload struct {
		Results []Entry `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return payload.Results, nil
}
