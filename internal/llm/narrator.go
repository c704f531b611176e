package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/logger"
	"github.com/nileshindira/trading-persona/internal/store"
	"github.com/nileshindira/trading-persona/internal/types"
)

// ErrUnavailable is wrapped by completers when the model cannot be reached
// or returns nothing usable.
var ErrUnavailable = errors.New("llm unavailable")

const defaultPersona = "You are an expert trading psychologist."

// SectionNarrator asks the model for each narrative section in turn.
type SectionNarrator struct {
	completer interfaces.Completer
	cfg       *store.Config
}

var _ interfaces.Narrator = (*SectionNarrator)(nil)

func NewNarrator(cfg *store.Config, completer interfaces.Completer) *SectionNarrator {
	return &SectionNarrator{completer: completer, cfg: cfg}
}

// Narrate fills every section it can. A section whose call fails is N/A;
// the narrative itself never fails.
func (n *SectionNarrator) Narrate(ctx context.Context, trader string, m types.Metrics, p types.Patterns) types.Narrative {
	out := types.EmptyNarrative()
	if n.completer == nil {
		return out
	}

	brief := BuildContext(m, p)
	failed := 0
	for _, s := range sections {
		text, err := n.complete(ctx, s, brief)
		if err != nil {
			failed++
			if errors.Is(err, ErrUnavailable) {
				logger.Warn(ctx, "Narrative section unavailable", "trader", trader, "section", s.name, "error", err)
			} else {
				logger.ErrorWithErr(ctx, "Narrative section failed", err, "trader", trader, "section", s.name)
			}
			continue
		}
		s.set(&out, text)
	}

	logger.Info(ctx, "Narrative generated", "trader", trader, "sections", len(sections), "failed", failed)
	return out
}

func (n *SectionNarrator) complete(ctx context.Context, s section, brief string) (string, error) {
	if n.cfg.LLM.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(n.cfg.LLM.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	persona := n.cfg.LLM.System
	if persona == "" {
		persona = defaultPersona
	}
	system := persona + " " + s.focus

	text, err := n.completer.Complete(ctx, system, s.prompt(brief))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrUnavailable
	}
	return text, nil
}

// Bullets extracts the list items of a recommendations section. Lines
// starting with "-", "•" or "*" count; at most limit are returned.
func Bullets(text string, limit int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		for _, mark := range []string{"-", "•", "*"} {
			if !strings.HasPrefix(line, mark) {
				continue
			}
			item := strings.TrimSpace(strings.TrimLeft(line, mark))
			if item != "" {
				out = append(out, item)
			}
			break
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
