package nlfilter

import (
	"strconv"
	"strings"

	"github.com/urbanfabric/building-explorer/internal/model"
)

// Matches applies one predicate to one enriched record. Total: absent
// attributes, malformed values, and failed coercions all evaluate to no
// match. Excluding a malformed record is the contract, not an error path.
func Matches(record model.Building, p model.Predicate) bool {
	v, ok := record[p.Attribute]
	if !ok || v == nil {
		return false
	}
	stored, ok := toFloat(v)
	if !ok {
		return false
	}
	want, ok := toFloat(p.Value)
	if !ok {
		return false
	}
	switch p.Operator {
	case model.OpGreater:
		return stored > want
	case model.OpLess:
		return stored < want
	case model.OpEqual:
		return stored == want
	default:
		return false
	}
}

// MatchIDs returns the ids of matching records, in record order.
func MatchIDs(records []model.Building, p model.Predicate) []int {
	ids := make([]int, 0)
	for _, r := range records {
		if !Matches(r, p) {
			continue
		}
		if id, ok := r["id"].(int); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Union applies every predicate independently and ORs the match sets, in
// first-seen order. A one-predicate call degenerates to that predicate's
// own matches.
func Union(records []model.Building, preds []model.Predicate) ([]int, [][]int) {
	perPred := make([][]int, 0, len(preds))
	seen := make(map[int]bool)
	all := make([]int, 0)
	for _, p := range preds {
		ids := MatchIDs(records, p)
		perPred = append(perPred, ids)
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				all = append(all, id)
			}
		}
	}
	return all, perPred
}

// toFloat coerces stored or predicate values. Text is lower-cased and a
// trailing metre marker stripped before parsing, so "50m" compares as 50.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		s := strings.ToLower(strings.TrimSpace(n))
		s = strings.TrimSuffix(s, "m")
		s = strings.TrimSpace(s)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
