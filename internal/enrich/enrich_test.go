package enrich

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/urbanfabric/building-explorer/internal/model"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func square(d float64) map[string]any {
	return map[string]any{
		"type": "Polygon",
		"coordinates": []any{[]any{
			[]any{0.0, 0.0}, []any{d, 0.0}, []any{d, d}, []any{0.0, d}, []any{0.0, 0.0},
		}},
	}
}

func TestHeight(t *testing.T) {
	cases := []struct {
		name string
		rec  model.RawBuilding
		want float64
	}{
		{"both present", model.RawBuilding{"rooftop_elev_z": "1100.5", "grd_elev_min_z": "1050.5"}, 50},
		{"roof absent", model.RawBuilding{"grd_elev_min_z": "1050.5"}, 0},
		{"ground absent", model.RawBuilding{"rooftop_elev_z": "1100.5"}, 0},
		{"roof zero", model.RawBuilding{"rooftop_elev_z": "0", "grd_elev_min_z": "1050.5"}, 0},
		{"ground zero", model.RawBuilding{"rooftop_elev_z": "1100.5", "grd_elev_min_z": "0"}, 0},
		{"non numeric", model.RawBuilding{"rooftop_elev_z": "abc", "grd_elev_min_z": "1050.5"}, 0},
		{"float values", model.RawBuilding{"rooftop_elev_z": 1100.5, "grd_elev_min_z": 1050.5}, 50},
	}
	for _, tc := range cases {
		if got := Height(tc.rec); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("%s: height=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestBuildings_Enrichment(t *testing.T) {
	raw := []model.RawBuilding{
		{"rooftop_elev_z": "1100", "grd_elev_min_z": "1050", "polygon": square(2), "struct_id": "A1"},
		{"rooftop_elev_z": "1080", "grd_elev_min_z": "1050"},
	}
	out := Buildings(discard(), raw)
	if len(out) != 2 {
		t.Fatalf("len=%d want 2", len(out))
	}

	// ids are dense and sequential within one pass
	for i, b := range out {
		if b["id"] != i {
			t.Fatalf("id=%v want %d", b["id"], i)
		}
		if b["colour"] != DefaultColour {
			t.Fatalf("colour=%v want %s", b["colour"], DefaultColour)
		}
		if b["land_use"] != nil {
			t.Fatalf("land_use=%v want nil", b["land_use"])
		}
	}

	if out[0]["height"] != 50.0 {
		t.Fatalf("height=%v want 50", out[0]["height"])
	}
	if out[0]["struct_id"] != "A1" {
		t.Fatalf("raw field not carried through: %v", out[0]["struct_id"])
	}

	c := out[0]["centroid"].([]float64)
	// mean of the closed 2x2 ring
	if math.Abs(c[0]-0.8) > 1e-9 || math.Abs(c[1]-0.8) > 1e-9 {
		t.Fatalf("centroid=%v want [0.8 0.8]", c)
	}

	// no polygon means degenerate centroid
	c2 := out[1]["centroid"].([]float64)
	if c2[0] != 0 || c2[1] != 0 {
		t.Fatalf("centroid=%v want [0 0]", c2)
	}
}

func TestBuildings_IDsReassignedPerPass(t *testing.T) {
	raw := []model.RawBuilding{{"struct_id": "x"}}
	first := Buildings(discard(), raw)
	second := Buildings(discard(), append([]model.RawBuilding{{"struct_id": "y"}}, raw...))
	if first[0]["id"] != 0 {
		t.Fatalf("first pass id=%v want 0", first[0]["id"])
	}
	if second[1]["id"] != 1 {
		t.Fatalf("second pass id=%v want 1", second[1]["id"])
	}
}
