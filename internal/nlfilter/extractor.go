package nlfilter

import (
	"context"
	"log/slog"

	"github.com/urbanfabric/building-explorer/internal/model"
	"github.com/urbanfabric/building-explorer/internal/observability"
)

// Strategy is one way of deriving a predicate from a query. Strategies report
// present/absent and never fail outward.
type Strategy interface {
	Extract(ctx context.Context, query string) (model.Predicate, bool)
}

type rulesStrategy struct{}

func (rulesStrategy) Extract(_ context.Context, query string) (model.Predicate, bool) {
	return FromPatterns(query)
}

// Extractor tries its strategies in fixed order: rule patterns first, the
// model second. The rules run locally and free, so they always go first.
type Extractor struct {
	logger     *slog.Logger
	strategies []Strategy
	names      []string
}

func NewExtractor(logger *slog.Logger, llm *LLMExtractor) *Extractor {
	e := &Extractor{
		logger:     logger,
		strategies: []Strategy{rulesStrategy{}},
		names:      []string{"rules"},
	}
	if llm != nil {
		e.strategies = append(e.strategies, llm)
		e.names = append(e.names, "llm")
	}
	return e
}

// Extract returns the first strategy's predicate, or ok=false when none
// produced one. Identical queries re-run the strategies; extraction results
// are not cached.
func (e *Extractor) Extract(ctx context.Context, query string) (model.Predicate, bool) {
	for i, s := range e.strategies {
		if p, ok := s.Extract(ctx, query); ok {
			observability.IncExtraction(e.names[i])
			e.logger.Debug("filter extracted",
				"strategy", e.names[i],
				"attribute", p.Attribute,
				"operator", string(p.Operator))
			return p, true
		}
	}
	observability.IncExtraction("none")
	return model.Predicate{}, false
}
