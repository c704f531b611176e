package interfaces

import (
	"context"

	"github.com/nileshindira/trading-persona/internal/types"
)

// Completer sends one prompt to a language model.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type Narrator interface {
	Narrate(ctx context.Context, trader string, m types.Metrics, p types.Patterns) types.Narrative
}
