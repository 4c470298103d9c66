package upstream

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/urbanfabric/building-explorer/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var bbox = model.BBox{MinLng: -114.09, MinLat: 51.04, MaxLng: -114.04, MaxLat: 51.05}

func TestBuildingsFetch_QueryShape(t *testing.T) {
	var gotLimit, gotWhere string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("$limit")
		gotWhere = r.URL.Query().Get("$where")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"struct_id": "A", "rooftop_elev_z": "1100"},
			{"struct_id": "B"},
		})
	}))
	defer srv.Close()

	c, err := NewBuildingsClient(testLogger(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	records, err := c.Fetch(t.Context(), 500, bbox)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("records=%d want 2", len(records))
	}
	if records[0]["struct_id"] != "A" {
		t.Fatalf("struct_id=%v want A", records[0]["struct_id"])
	}
	if gotLimit != "500" {
		t.Fatalf("$limit=%q want 500", gotLimit)
	}
	want := "intersects(polygon, '" + bbox.WKTPolygon() + "')"
	if gotWhere != want {
		t.Fatalf("$where=%q want %q", gotWhere, want)
	}
}

func TestBuildingsFetch_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewBuildingsClient(testLogger(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = c.Fetch(t.Context(), 10, bbox)
	if err == nil {
		t.Fatal("want error on non-2xx")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("err=%v want status and body surfaced", err)
	}
}

func TestBuildingsFetch_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c, err := NewBuildingsClient(testLogger(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.Fetch(t.Context(), 10, bbox); err == nil {
		t.Fatal("want decode error")
	}
}

func TestLandUseFetchZones_QueryShape(t *testing.T) {
	var gotWhere string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotWhere = r.URL.Query().Get("$where")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"lu_code": "CC-X", "label": "Commercial Core"},
		})
	}))
	defer srv.Close()

	c, err := NewLandUseClient(testLogger(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	zones, err := c.FetchZones(t.Context(), bbox)
	if err != nil {
		t.Fatalf("fetch zones: %v", err)
	}

	if len(zones) != 1 || zones[0].Code != "CC-X" {
		t.Fatalf("zones=%v", zones)
	}
	want := "intersects(multipolygon, '" + bbox.WKTPolygon() + "')"
	if gotWhere != want {
		t.Fatalf("$where=%q want %q", gotWhere, want)
	}
}

func TestLandUseFetchZonesAt_PointWhere(t *testing.T) {
	var gotWhere string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotWhere = r.URL.Query().Get("$where")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c, err := NewLandUseClient(testLogger(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	zones, err := c.FetchZonesAt(t.Context(), -114.07, 51.045)
	if err != nil {
		t.Fatalf("fetch zones at: %v", err)
	}
	if len(zones) != 0 {
		t.Fatalf("zones=%v want none", zones)
	}
	if !strings.Contains(gotWhere, "POINT(-114.070000 51.045000)") {
		t.Fatalf("$where=%q want point literal", gotWhere)
	}
}
