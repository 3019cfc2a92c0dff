package radarr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"marquee/internal/config"
	"marquee/internal/request"
	"marquee/internal/services"
)

const userAgent = "Marquee/0.1.0"

// Client submits movie requests to a single Radarr instance.
type Client struct {
	serverID         string
	baseURL          string
	apiKey           string
	qualityProfileID int
	rootDir          string
	client           *http.Client
}

// New builds a Radarr client from an acquisition target config block.
func New(server config.ArrServer) *Client {
	timeout := time.Duration(server.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		serverID:         server.ID,
		baseURL:          strings.TrimRight(server.URL, "/"),
		apiKey:           server.APIKey,
		qualityProfileID: server.QualityProfileID,
		rootDir:          server.RootDir,
		client:           &http.Client{Timeout: timeout},
	}
}

// ID returns the acquisition target identifier referenced by profiles.
func (c *Client) ID() string { return c.serverID }

// Class returns the content class this target accepts.
func (c *Client) Class() request.ContentClass { return request.ClassMovie }

type movieResource struct {
	Title     string          `json:"title"`
	TitleSlug string          `json:"titleSlug"`
	Year      int             `json:"year"`
	TMDBID    int64           `json:"tmdbId"`
	Images    json.RawMessage `json:"images"`
}

type addMoviePayload struct {
	movieResource
	QualityProfileID int             `json:"qualityProfileId"`
	RootFolderPath   string          `json:"rootFolderPath"`
	Monitored        bool            `json:"monitored"`
	AddOptions       movieAddOptions `json:"addOptions"`
}

type movieAddOptions struct {
	SearchForMovie bool `json:"searchForMovie"`
}

// Submit looks the movie up by TMDB id and adds it to Radarr, returning the
// Radarr movie id as the acquisition id.
func (c *Client) Submit(ctx context.Context, req *request.Request) (string, error) {
	tmdbID := strings.TrimSpace(req.TMDBID)
	if tmdbID == "" {
		tmdbID = strings.TrimSpace(req.ContentID)
	}
	if tmdbID == "" {
		return "", services.Wrap(services.ErrValidation, "radarr", "submit", "missing tmdb id", nil)
	}

	lookupURL := fmt.Sprintf("%s/api/v3/movie/lookup/tmdb?tmdbId=%s", c.baseURL, url.QueryEscape(tmdbID))
	var movie movieResource
	if err := c.getJSON(ctx, lookupURL, &movie); err != nil {
		return "", services.Wrap(services.ErrTransient, "radarr", "lookup", c.serverID, err)
	}

	payload := addMoviePayload{
		movieResource:    movie,
		QualityProfileID: c.qualityProfileID,
		RootFolderPath:   c.rootDir,
		Monitored:        true,
		AddOptions:       movieAddOptions{SearchForMovie: true},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal add payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v3/movie", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build add request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "radarr", "submit", c.serverID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", services.Wrap(services.ErrTransient, "radarr", "submit",
			fmt.Sprintf("%s returned %d: %s", c.serverID, resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	var added struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		return "", fmt.Errorf("decode add response: %w", err)
	}
	return strconv.FormatInt(added.ID, 10), nil
}

// Remove deletes a previously submitted movie from Radarr. Media files are
// left in place.
func (c *Client) Remove(ctx context.Context, acquisitionID string) error {
	target := fmt.Sprintf("%s/api/v3/movie/%s?deleteFiles=false&addImportExclusion=false", c.baseURL, url.PathEscape(acquisitionID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return fmt.Errorf("build remove request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return services.Wrap(services.ErrTransient, "radarr", "remove", c.serverID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return services.Wrap(services.ErrNotFound, "radarr", "remove",
			fmt.Sprintf("%s: movie %s", c.serverID, acquisitionID), nil)
	}
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrTransient, "radarr", "remove",
			fmt.Sprintf("%s returned %d: %s", c.serverID, resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
}
