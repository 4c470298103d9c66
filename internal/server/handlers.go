package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/urbanfabric/building-explorer/internal/buildingcache"
	"github.com/urbanfabric/building-explorer/internal/landuse"
	"github.com/urbanfabric/building-explorer/internal/model"
	"github.com/urbanfabric/building-explorer/internal/nlfilter"
	"github.com/urbanfabric/building-explorer/internal/store"
	"github.com/urbanfabric/building-explorer/internal/upstream"
)

// Handlers carries the collaborators behind the API endpoints.
type Handlers struct {
	Logger    *slog.Logger
	Cache     *buildingcache.Cache
	LandUse   *upstream.LandUseClient
	Extractor *nlfilter.Extractor
	Store     *store.Store
	Limit     int
	BBox      model.BBox
}

func (h *Handlers) buildings(ctx context.Context) ([]model.Building, error) {
	return h.Cache.Get(ctx, h.Limit, h.BBox)
}

// GET /api/buildings
func (h *Handlers) Buildings(w http.ResponseWriter, r *http.Request) {
	buildings, err := h.buildings(r.Context())
	if err != nil {
		h.Logger.Error("buildings fetch failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, buildings)
}

// GET /api/buildings-with-land-use
//
// The join degrades: when the land-use upstream is unreachable every
// building keeps land_use absent and the response is still 200.
func (h *Handlers) BuildingsWithLandUse(w http.ResponseWriter, r *http.Request) {
	cached, err := h.buildings(r.Context())
	if err != nil {
		h.Logger.Error("buildings fetch failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	// the cached maps are shared with every concurrent request; the join
	// writes land_use, so it gets its own copies
	buildings := cloneBuildings(cached)

	zones, err := h.LandUse.FetchZones(r.Context(), h.BBox)
	if err != nil {
		h.Logger.Warn("land-use fetch failed, serving buildings without attachment", "err", err)
	} else {
		landuse.Join(h.Logger, buildings, zones)
	}
	writeJSON(w, http.StatusOK, buildings)
}

func cloneBuildings(in []model.Building) []model.Building {
	out := make([]model.Building, len(in))
	for i, b := range in {
		cp := make(model.Building, len(b))
		for k, v := range b {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}

type filterRequest struct {
	Query   string   `json:"query"`
	Queries []string `json:"queries"`
}

type filterResult struct {
	Query       string `json:"query"`
	FilterIndex int    `json:"filter_index"`
	Matches     []int  `json:"matches"`
}

// POST /api/filter-buildings
func (h *Handlers) FilterBuildings(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	queries := req.Queries
	if len(queries) == 0 && strings.TrimSpace(req.Query) != "" {
		queries = []string{req.Query}
	}
	if len(queries) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no query provided"})
		return
	}

	buildings, err := h.buildings(r.Context())
	if err != nil {
		h.Logger.Error("buildings fetch failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	// extraction failure on every query is the expected 400, not an error
	var preds []model.Predicate
	var extracted []int
	for i, q := range queries {
		p, ok := h.Extractor.Extract(r.Context(), q)
		if !ok {
			h.Logger.Debug("no predicate extracted", "query", q)
			continue
		}
		preds = append(preds, p)
		extracted = append(extracted, i)
	}
	if len(preds) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "could not extract filter from query"})
		return
	}

	all, perPred := nlfilter.Union(buildings, preds)
	results := make([]filterResult, 0, len(preds))
	for i := range preds {
		results = append(results, filterResult{
			Query:       queries[extracted[i]],
			FilterIndex: extracted[i],
			Matches:     perPred[i],
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"all_matches":    all,
		"filter_results": results,
	})
}

// GET /api/land-use?lng=&lat=
func (h *Handlers) LandUseAt(w http.ResponseWriter, r *http.Request) {
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if errLng != nil || errLat != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status":  "error",
			"message": "lng and lat query parameters are required",
		})
		return
	}

	zones, err := h.LandUse.FetchZonesAt(r.Context(), lng, lat)
	if err != nil {
		h.Logger.Error("land-use lookup failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	zone := landuse.Lookup(zones, lng, lat)
	var data any
	if zone != nil {
		data = map[string]any{
			"lu_code":     zone.Code,
			"description": zone.Description,
			"label":       zone.Label,
			"major":       zone.Major,
			"generalize":  zone.Generalized,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": data})
}

type saveRequest struct {
	Username   string            `json:"username"`
	FilterName string            `json:"filter_name"`
	Filters    []model.Predicate `json:"filters"`
}

// POST /api/filters/save
func (h *Handlers) SaveFilters(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.FilterName) == "" || req.Filters == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "username, filter_name and filters are required",
		})
		return
	}

	action, err := h.Store.Save(r.Context(), req.Username, req.FilterName, req.Filters)
	if err != nil {
		h.Logger.Error("save filters failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"action":  action,
		"message": "Filters " + action + " successfully",
	})
}

// GET /api/filters/load?username=&filter_name=
func (h *Handlers) LoadFilters(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "username is required"})
		return
	}
	filterName := strings.TrimSpace(r.URL.Query().Get("filter_name"))

	if filterName != "" {
		fs, err := h.Store.Load(r.Context(), username, filterName)
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Filter set not found"})
			return
		}
		if err != nil {
			h.Logger.Error("load filters failed", "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"filter_name": fs.FilterName,
			"filters":     fs.Filters,
			"created_at":  fs.CreatedAt,
			"updated_at":  fs.UpdatedAt,
		})
		return
	}

	sets, err := h.Store.LoadAll(r.Context(), username)
	if err != nil {
		h.Logger.Error("load filter sets failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "filter_sets": sets})
}

type deleteRequest struct {
	Username   string `json:"username"`
	FilterName string `json:"filter_name"`
}

// DELETE /api/filters/delete
func (h *Handlers) DeleteFilters(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.FilterName) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "username and filter_name are required",
		})
		return
	}

	err := h.Store.Delete(r.Context(), req.Username, req.FilterName)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Filter set not found"})
		return
	}
	if err != nil {
		h.Logger.Error("delete filters failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Filter set deleted successfully"})
}

// GET /api/filters/list?username=
func (h *Handlers) ListFilters(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "username is required"})
		return
	}
	names, err := h.Store.ListNames(r.Context(), username)
	if err != nil {
		h.Logger.Error("list filter names failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "filter_names": names})
}

// POST /api/cache/clear
func (h *Handlers) CacheClear(w http.ResponseWriter, _ *http.Request) {
	h.Cache.Clear()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "cache cleared"})
}

// GET /api/cache/status
func (h *Handlers) CacheStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Cache.Status())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
