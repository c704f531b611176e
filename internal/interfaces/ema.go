package interfaces

import (
	"context"

	"github.com/nileshindira/trading-persona/internal/types"
)

// ScoreCache stores EMA scores keyed by symbol, exchange and date.
// Put is an idempotent upsert.
type ScoreCache interface {
	Get(ctx context.Context, symbol, exchange, date string) (*types.EMAScore, bool, error)
	Put(ctx context.Context, s types.EMAScore) error
	Close() error
}

type EMAScorer interface {
	Enrich(ctx context.Context, positions []types.ClosedPosition) ([]types.EnrichedPosition, types.EMASummary)
}
