package interfaces

import (
	"context"

	"github.com/nileshindira/trading-persona/internal/types"
)

type Engine interface {
	Analyze(ctx context.Context, trader, path string) (*types.AnalysisResult, error)
}
