package llmobs

import (
	"context"
	"time"

	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/logger"
	"github.com/nileshindira/trading-persona/internal/trace"
	"github.com/nileshindira/trading-persona/internal/types"
)

// observableNarrator wraps a Narrator with logging and tracing.
type observableNarrator struct {
	narrator interfaces.Narrator
}

var _ interfaces.Narrator = (*observableNarrator)(nil)

func Wrap(narrator interfaces.Narrator) interfaces.Narrator {
	return &observableNarrator{narrator: narrator}
}

func (on *observableNarrator) Narrate(ctx context.Context, trader string, m types.Metrics, p types.Patterns) types.Narrative {
	ctx, span := trace.StartSpan(ctx, "llm.Narrate")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting narrative",
		"trader", trader,
		"total_trades", m.TotalTrades,
		"patterns_detected", len(p.Detected()),
	)

	start := time.Now()
	n := on.narrator.Narrate(ctx, trader, m, p)

	available := 0
	for _, s := range []string{n.TraderProfile, n.RiskAssessment, n.BehavioralInsights, n.Recommendations, n.PerformanceSummary} {
		if s != types.NotAvailable {
			available++
		}
	}
	if available == 0 {
		logger.WarnSkip(ctx, 1, "Narrative unavailable", "trader", trader, "duration_ms", time.Since(start).Milliseconds())
		return n
	}

	logger.InfoSkip(ctx, 1, "Narrative received",
		"trader", trader,
		"sections_available", available,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return n
}
