// Package landuse attaches district classifications to enriched buildings.
package landuse

import (
	"log/slog"

	"github.com/paulmach/orb"

	"github.com/urbanfabric/building-explorer/internal/geometry"
	"github.com/urbanfabric/building-explorer/internal/model"
)

type parsedZone struct {
	use  model.LandUse
	geom orb.Geometry
}

// Join mutates buildings in place, attaching the classification of the first
// intersecting zone in upstream order. Zones without usable geometry or a
// classification code are skipped with a log line; buildings without a usable
// polygon, or with no intersecting zone, keep land_use absent.
func Join(logger *slog.Logger, buildings []model.Building, zones []model.LandUseZone) {
	parsed := make([]parsedZone, 0, len(zones))
	for i, z := range zones {
		if z.Code == "" {
			logger.Debug("skipping zone without classification code", "index", i)
			continue
		}
		g, ok := geometry.Decode(z.Geometry)
		if !ok {
			logger.Debug("skipping zone with unusable geometry", "index", i, "lu_code", z.Code)
			continue
		}
		parsed = append(parsed, parsedZone{
			use: model.LandUse{
				Code:        z.Code,
				Description: z.Description,
				Label:       z.Label,
				Major:       z.Major,
				Generalized: z.Generalized,
			},
			geom: g,
		})
	}

	attached := 0
	for _, b := range buildings {
		g, ok := geometry.Decode(b["polygon"])
		if !ok {
			continue
		}
		for _, z := range parsed {
			if geometry.Intersects(g, z.geom) {
				b["land_use"] = z.use
				attached++
				break
			}
		}
	}
	logger.Debug("land-use join done",
		"buildings", len(buildings),
		"zones_usable", len(parsed),
		"attached", attached)
}

// Lookup resolves the zone covering a single point, or nil.
func Lookup(zones []model.LandUseZone, lng, lat float64) *model.LandUseZone {
	pt := orb.Point{lng, lat}
	for i := range zones {
		g, ok := geometry.Decode(zones[i].Geometry)
		if !ok {
			continue
		}
		if geometry.ContainsPoint(g, pt) {
			return &zones[i]
		}
	}
	return nil
}
