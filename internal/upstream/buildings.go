// Package upstream implements clients for the municipal open-data API.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/urbanfabric/building-explorer/internal/model"
	"github.com/urbanfabric/building-explorer/internal/observability"
)

// BuildingsClient fetches building-footprint records (Socrata SoQL endpoint).
type BuildingsClient struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL *url.URL
}

func NewBuildingsClient(logger *slog.Logger, client *http.Client, base string) (*BuildingsClient, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse buildings url: %w", err)
	}
	return &BuildingsClient{logger: logger, client: client, baseURL: u}, nil
}

// Fetch returns up to limit raw records whose footprint intersects bbox.
func (c *BuildingsClient) Fetch(ctx context.Context, limit int, bbox model.BBox) ([]model.RawBuilding, error) {
	params := url.Values{}
	params.Set("$limit", strconv.Itoa(limit))
	params.Set("$where", fmt.Sprintf("intersects(polygon, '%s')", bbox.WKTPolygon()))

	body, err := c.get(ctx, params, "buildings")
	if err != nil {
		return nil, err
	}

	var records []model.RawBuilding
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode buildings response: %w", err)
	}
	c.logger.Debug("fetched buildings", "count", len(records), "limit", limit)
	return records, nil
}

func (c *BuildingsClient) get(ctx context.Context, params url.Values, upstream string) ([]byte, error) {
	u := *c.baseURL
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	observability.ObserveUpstreamLatency(upstream, time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(b))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}
