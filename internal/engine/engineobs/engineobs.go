package engineobs

import (
	"context"
	"time"

	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/logger"
	"github.com/nileshindira/trading-persona/internal/trace"
	"github.com/nileshindira/trading-persona/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Analyze(ctx context.Context, trader, path string) (*types.AnalysisResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Analyze")
	defer span.End()
	trace.Annotate(ctx, "trader", trader)

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting trader analysis",
		"trader", trader,
		"file", path,
	)

	result, err := oe.engine.Analyze(ctx, trader, path)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trader analysis failed", err,
			"trader", trader,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Trader analysis completed",
		"trader", trader,
		"total_trades", result.Report.ExecutiveSummary.TotalTrades,
		"risk_score", result.Report.RiskScore,
		"risk_level", result.Report.ExecutiveSummary.RiskLevel,
		"outputs", len(result.Outputs),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
