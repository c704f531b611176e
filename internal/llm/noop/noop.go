package noop

import (
	"context"
	"fmt"

	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/llm"
	"github.com/nileshindira/trading-persona/internal/logger"
)

// Completer is used when no model provider is configured. Every section
// comes back unavailable.
type Completer struct{}

var _ interfaces.Completer = (*Completer)(nil)

func NewCompleter() *Completer {
	return &Completer{}
}

func (c *Completer) Complete(ctx context.Context, system, prompt string) (string, error) {
	logger.Debug(ctx, "Noop completer called", "prompt_length", len(prompt))
	return "", fmt.Errorf("%w: no provider configured", llm.ErrUnavailable)
}
