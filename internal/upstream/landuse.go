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

// zone fetches are bounded; the downtown extent holds well under this
const zoneFetchLimit = 2000

// LandUseClient fetches land-use district polygons.
type LandUseClient struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL *url.URL
}

func NewLandUseClient(logger *slog.Logger, client *http.Client, base string) (*LandUseClient, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse landuse url: %w", err)
	}
	return &LandUseClient{logger: logger, client: client, baseURL: u}, nil
}

// FetchZones returns districts intersecting bbox, in upstream order.
func (c *LandUseClient) FetchZones(ctx context.Context, bbox model.BBox) ([]model.LandUseZone, error) {
	where := fmt.Sprintf("intersects(multipolygon, '%s')", bbox.WKTPolygon())
	return c.fetch(ctx, where)
}

// FetchZonesAt returns districts covering a single point.
func (c *LandUseClient) FetchZonesAt(ctx context.Context, lng, lat float64) ([]model.LandUseZone, error) {
	where := fmt.Sprintf("intersects(multipolygon, 'POINT(%f %f)')", lng, lat)
	return c.fetch(ctx, where)
}

func (c *LandUseClient) fetch(ctx context.Context, where string) ([]model.LandUseZone, error) {
	params := url.Values{}
	params.Set("$limit", strconv.Itoa(zoneFetchLimit))
	params.Set("$where", where)

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

	observability.ObserveUpstreamLatency("landuse", time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(b))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var zones []model.LandUseZone
	if err := json.Unmarshal(body, &zones); err != nil {
		return nil, fmt.Errorf("decode landuse response: %w", err)
	}
	c.logger.Debug("fetched land-use zones", "count", len(zones))
	return zones, nil
}
