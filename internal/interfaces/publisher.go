package interfaces

import (
	"context"

	"github.com/nileshindira/trading-persona/internal/types"
)

type Publisher interface {
	Publish(ctx context.Context, r *types.Report) error
	Close() error
}
