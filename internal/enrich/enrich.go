// Package enrich derives presentation attributes for raw building records.
package enrich

import (
	"log/slog"
	"strconv"

	"github.com/urbanfabric/building-explorer/internal/geometry"
	"github.com/urbanfabric/building-explorer/internal/model"
)

// DefaultColour is the unfiltered display colour the frontend starts from.
const DefaultColour = "#aaaaaa"

// Buildings enriches every raw record: derived height, outer-ring centroid,
// a dense sequential id, the default colour, and an absent land_use slot.
// Ids are only stable within one enrichment pass; a cache refresh reassigns
// them.
func Buildings(logger *slog.Logger, raw []model.RawBuilding) []model.Building {
	out := make([]model.Building, 0, len(raw))
	for i, r := range raw {
		b := make(model.Building, len(r)+5)
		for k, v := range r {
			b[k] = v
		}
		b["id"] = i
		b["height"] = Height(r)
		b["colour"] = DefaultColour
		b["land_use"] = nil

		lng, lat := 0.0, 0.0
		if g, ok := geometry.Decode(r["polygon"]); ok {
			c := geometry.Centroid(g)
			lng, lat = c.Lon(), c.Lat()
		} else if r["polygon"] != nil && logger != nil {
			logger.Debug("building polygon unusable", "index", i)
		}
		b["centroid"] = []float64{lng, lat}

		out = append(out, b)
	}
	return out
}

// Height is rooftop elevation minus minimum ground elevation. Either bound
// absent or zero means the difference is meaningless, so height collapses
// to 0 rather than guessing.
func Height(r model.RawBuilding) float64 {
	roof, okRoof := Coord(r["rooftop_elev_z"])
	grd, okGrd := Coord(r["grd_elev_min_z"])
	if !okRoof || !okGrd || roof == 0 || grd == 0 {
		return 0
	}
	return roof - grd
}

// Coord coerces an upstream elevation value. Socrata sends numbers as
// strings, but cached or test records may carry real floats.
func Coord(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
