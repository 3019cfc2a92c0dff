package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"marquee/internal/config"
	"marquee/internal/services"
)

// Client talks to a Plex Media Server.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New builds a Plex client from config. Returns nil when Plex is disabled;
// callers treat a nil client as "no library backend".
func New(cfg *config.Config) *Client {
	if !cfg.Plex.Enabled {
		return nil
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.Plex.URL, "/"),
		token:   cfg.Plex.Token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// ResourceSample is one utilisation datapoint reported by the server.
type ResourceSample struct {
	At             int64   `json:"at"`
	HostCPU        float64 `json:"hostCpuUtilization"`
	HostMemory     float64 `json:"hostMemoryUtilization"`
	ProcessCPU     float64 `json:"processCpuUtilization"`
	ProcessMemory  float64 `json:"processMemoryUtilization"`
	TimespanLength int64   `json:"timespan"`
}

// ServerInfo reports recent resource statistics from the Plex server.
func (c *Client) ServerInfo(ctx context.Context) ([]ResourceSample, error) {
	target := c.baseURL + "/statistics/resources?timespan=6"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "plex", "server_info", "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "plex", "server_info", "fetch statistics", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, services.Wrap(services.ErrConfiguration, "plex", "server_info", "token rejected", nil)
	}
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, services.Wrap(services.ErrTransient, "plex", "server_info",
			fmt.Sprintf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	var payload struct {
		MediaContainer struct {
			StatisticsResources []ResourceSample `json:"StatisticsResources"`
		} `json:"MediaContainer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrTransient, "plex", "server_info", "decode statistics", err)
	}
	return payload.MediaContainer.StatisticsResources, nil
}
