package interfaces

import (
	"context"
	"time"

	"github.com/nileshindira/trading-persona/internal/types"
)

// PriceSource returns up to n daily bars dated strictly before the given day.
type PriceSource interface {
	DailyCandles(ctx context.Context, symbol, exchange string, before time.Time, n int) ([]types.Candle, error)
}

type TradeSource interface {
	TradeBook(ctx context.Context) ([]types.TradeRecord, error)
}
