package emaobs

import (
	"context"

	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/logger"
	"github.com/nileshindira/trading-persona/internal/trace"
	"github.com/nileshindira/trading-persona/internal/types"
)

// observableScorer wraps an EMAScorer with a span and summary logging.
type observableScorer struct {
	scorer interfaces.EMAScorer
}

var _ interfaces.EMAScorer = (*observableScorer)(nil)

func Wrap(scorer interfaces.EMAScorer) interfaces.EMAScorer {
	return &observableScorer{scorer: scorer}
}

func (o *observableScorer) Enrich(ctx context.Context, positions []types.ClosedPosition) ([]types.EnrichedPosition, types.EMASummary) {
	ctx, span := trace.StartSpan(ctx, "ema.Enrich")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Enriching positions with EMA scores", "positions", len(positions))

	enriched, summary := o.scorer.Enrich(ctx, positions)

	fields := []any{"positions", len(enriched)}
	for _, c := range summary.Columns {
		fields = append(fields, c.Column+"_coverage", c.Coverage, c.Column+"_mean", c.Mean)
	}
	logger.InfoSkip(ctx, 1, "EMA enrichment complete", fields...)

	return enriched, summary
}
