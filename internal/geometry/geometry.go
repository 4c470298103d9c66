// Package geometry wraps the orb primitives used for enrichment and the
// land-use join: GeoJSON decoding, outer-ring centroids, and intersection
// tests between building footprints and district polygons.
package geometry

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Decode parses a raw GeoJSON geometry value (the open-data APIs hand the
// geometry over as a nested map). Only Polygon and MultiPolygon are usable;
// anything else, or malformed input, returns ok=false.
func Decode(raw any) (orb.Geometry, bool) {
	if raw == nil {
		return nil, false
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, false
	}
	g, err := geojson.UnmarshalGeometry(b)
	if err != nil {
		return nil, false
	}
	switch geom := g.Geometry().(type) {
	case orb.Polygon:
		if len(geom) == 0 || len(geom[0]) == 0 {
			return nil, false
		}
		return geom, true
	case orb.MultiPolygon:
		if len(geom) == 0 || len(geom[0]) == 0 || len(geom[0][0]) == 0 {
			return nil, false
		}
		return geom, true
	default:
		return nil, false
	}
}

// OuterRing returns the exterior ring of the geometry's first polygon.
func OuterRing(g orb.Geometry) (orb.Ring, bool) {
	switch geom := g.(type) {
	case orb.Polygon:
		if len(geom) == 0 {
			return nil, false
		}
		return geom[0], true
	case orb.MultiPolygon:
		if len(geom) == 0 || len(geom[0]) == 0 {
			return nil, false
		}
		return geom[0][0], true
	default:
		return nil, false
	}
}

// Centroid is the arithmetic mean of the outer ring's coordinate pairs,
// taken over the ring exactly as delivered. Degenerate input yields (0,0).
func Centroid(g orb.Geometry) orb.Point {
	ring, ok := OuterRing(g)
	if !ok || len(ring) == 0 {
		return orb.Point{}
	}
	var sumLng, sumLat float64
	for _, p := range ring {
		sumLng += p.Lon()
		sumLat += p.Lat()
	}
	n := float64(len(ring))
	return orb.Point{sumLng / n, sumLat / n}
}

// ContainsPoint tests point-in-polygon for Polygon and MultiPolygon geometries.
func ContainsPoint(g orb.Geometry, pt orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, pt)
	default:
		return false
	}
}

// Intersects is the footprint-versus-district test used by the join. Planar
// approximation: bound overlap gate, then mutual vertex containment plus the
// centroid. Touching bounds without shared interior can false-negative on
// exotic shapes, which matches the first-match-wins scan's tolerance.
func Intersects(a, b orb.Geometry) bool {
	if a == nil || b == nil {
		return false
	}
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	if ContainsPoint(b, Centroid(a)) {
		return true
	}
	if ra, ok := OuterRing(a); ok {
		for _, p := range ra {
			if ContainsPoint(b, p) {
				return true
			}
		}
	}
	if rb, ok := OuterRing(b); ok {
		for _, p := range rb {
			if ContainsPoint(a, p) {
				return true
			}
		}
	}
	return false
}
