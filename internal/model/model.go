// Package model defines core domain types shared across the service.
package model

import "fmt"

// BBox is a WGS84 bounding box. Kept structured; the SoQL text form is
// derived on demand and never used as identity.
type BBox struct {
	MinLng, MinLat float64
	MaxLng, MaxLat float64
}

func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.MinLng, b.MinLat, b.MaxLng, b.MaxLat)
}

// WKTPolygon renders the box as the closed WKT ring Socrata's intersects() expects.
func (b BBox) WKTPolygon() string {
	return fmt.Sprintf("POLYGON((%[1]f %[2]f, %[3]f %[2]f, %[3]f %[4]f, %[1]f %[4]f, %[1]f %[2]f))",
		b.MinLng, b.MinLat, b.MaxLng, b.MaxLat)
}

// RawBuilding is one record as returned by the open-data API. Socrata encodes
// numeric fields as strings, so values stay opaque until evaluation.
type RawBuilding map[string]any

// Building is an enriched building record. The embedded raw fields are carried
// through to the response untouched.
type Building map[string]any

// LandUse is the classification attachment produced by the land-use join.
type LandUse struct {
	Code        string `json:"lu_code"`
	Description string `json:"description"`
	Label       string `json:"label"`
	Major       string `json:"major"`
	Generalized string `json:"generalize"`
}

// LandUseZone is one land-use district record from the open-data API,
// geometry still in its raw GeoJSON form.
type LandUseZone struct {
	Code        string         `json:"lu_code"`
	Description string         `json:"description"`
	Label       string         `json:"label"`
	Major       string         `json:"major"`
	Generalized string         `json:"generalize"`
	Geometry    map[string]any `json:"multipolygon"`
}

// Operator is the closed comparison vocabulary for predicates.
type Operator string

const (
	OpGreater Operator = ">"
	OpLess    Operator = "<"
	OpEqual   Operator = "=="
)

// Attributes a predicate may reference. Anything else is rejected at
// extraction time.
var AllowedAttributes = map[string]bool{
	"height":         true,
	"rooftop_elev_z": true,
	"grd_elev_min_z": true,
	"grd_elev_max_z": true,
	"land_use":       true,
}

// Predicate is one structured filter condition.
type Predicate struct {
	Attribute string   `json:"attribute"`
	Operator  Operator `json:"operator"`
	Value     any      `json:"value"`
}

// Valid reports whether the predicate uses a known attribute and operator.
func (p Predicate) Valid() bool {
	if !AllowedAttributes[p.Attribute] {
		return false
	}
	switch p.Operator {
	case OpGreater, OpLess, OpEqual:
		return true
	}
	return false
}

// FilterSet is a persisted named filter set for one user.
type FilterSet struct {
	FilterName string      `json:"filter_name"`
	Filters    []Predicate `json:"filters"`
	CreatedAt  string      `json:"created_at"`
	UpdatedAt  string      `json:"updated_at"`
}

// FilterName is one (name, updated_at) pair from the list operation.
type FilterName struct {
	Name      string `json:"name"`
	UpdatedAt string `json:"updated_at"`
}
