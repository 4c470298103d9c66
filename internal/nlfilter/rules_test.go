package nlfilter

import (
	"testing"

	"github.com/urbanfabric/building-explorer/internal/model"
)

func TestFromPatterns(t *testing.T) {
	cases := []struct {
		query string
		attr  string
		op    model.Operator
		value float64
	}{
		{"buildings taller than 50", "height", model.OpGreater, 50},
		{"show short buildings below 20", "height", model.OpLess, 20},
		{"height above 100", "height", model.OpGreater, 100},
		{"above 30 meters", "height", model.OpGreater, 30},
		{"below 12.5 m", "height", model.OpLess, 12.5},
		{"ground level above 1050", "grd_elev_min_z", model.OpGreater, 1050},
		{"ground below 1045.5", "grd_elev_min_z", model.OpLess, 1045.5},
		{"structures shorter than 15", "height", model.OpLess, 15},
		{"40 meters", "height", model.OpGreater, 40},
		{"TALLER THAN 80", "height", model.OpGreater, 80},
	}
	for _, tc := range cases {
		p, ok := FromPatterns(tc.query)
		if !ok {
			t.Fatalf("%q: no match", tc.query)
		}
		if p.Attribute != tc.attr || p.Operator != tc.op || p.Value != tc.value {
			t.Fatalf("%q: got %+v want {%s %s %v}", tc.query, p, tc.attr, tc.op, tc.value)
		}
	}
}

func TestFromPatterns_FirstMatchWins(t *testing.T) {
	// both the "taller" and the bare "N meters" patterns could fire; the
	// earlier one in the list decides
	p, ok := FromPatterns("buildings with height above 60 meters")
	if !ok {
		t.Fatalf("no match")
	}
	if p.Operator != model.OpGreater || p.Value != 60.0 {
		t.Fatalf("got %+v want height > 60", p)
	}
}

func TestFromPatterns_NoMatch(t *testing.T) {
	for _, q := range []string{"", "red buildings", "show everything", "land use is residential"} {
		if _, ok := FromPatterns(q); ok {
			t.Fatalf("%q: unexpected match", q)
		}
	}
}
