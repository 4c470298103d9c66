// Package nlfilter turns natural-language queries into structured predicates
// and evaluates those predicates against enriched building records.
package nlfilter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/urbanfabric/building-explorer/internal/model"
)

// Ordered phrase patterns; first match wins. Each binds a fixed
// (attribute, operator) pair and captures one numeric literal.
var patterns = []struct {
	re        *regexp.Regexp
	attribute string
	op        model.Operator
}{
	{regexp.MustCompile(`(?:tall|height|elevation).*?(?:above|over|greater than|>)\s*(\d+(?:\.\d+)?)`), "height", model.OpGreater},
	{regexp.MustCompile(`(?:above|over)\s*(\d+(?:\.\d+)?)\s*(?:meters?|m)`), "height", model.OpGreater},
	{regexp.MustCompile(`(?:short|low|height|elevation).*?(?:below|under|less than|<)\s*(\d+(?:\.\d+)?)`), "height", model.OpLess},
	{regexp.MustCompile(`(?:below|under)\s*(\d+(?:\.\d+)?)\s*(?:meters?|m)`), "height", model.OpLess},
	{regexp.MustCompile(`(?:ground|base).*?(?:above|over|>)\s*(\d+(?:\.\d+)?)`), "grd_elev_min_z", model.OpGreater},
	{regexp.MustCompile(`(?:ground|base).*?(?:below|under|<)\s*(\d+(?:\.\d+)?)`), "grd_elev_min_z", model.OpLess},
	{regexp.MustCompile(`(?:buildings?|structures?).*?(?:taller|higher).*?(?:than|>)\s*(\d+(?:\.\d+)?)`), "height", model.OpGreater},
	{regexp.MustCompile(`(?:buildings?|structures?).*?(?:shorter|lower).*?(?:than|<)\s*(\d+(?:\.\d+)?)`), "height", model.OpLess},
	// bare "X meters" is read as a height floor
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:meters?|m)`), "height", model.OpGreater},
}

// FromPatterns is the rule-based extraction strategy. Purely local and
// deterministic; no match returns ok=false.
func FromPatterns(query string) (model.Predicate, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(q)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return model.Predicate{Attribute: p.attribute, Operator: p.op, Value: v}, true
	}
	return model.Predicate{}, false
}
