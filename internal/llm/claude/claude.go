package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nileshindira/trading-persona/internal/api"
	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/llm"
	"github.com/nileshindira/trading-persona/internal/store"
	"github.com/nileshindira/trading-persona/internal/trace"
)

const apiVersion = "2023-06-01"

// Completer calls the Anthropic Messages API.
type Completer struct {
	cfg      *store.Config
	endpoint string
	client   *api.Client
}

var _ interfaces.Completer = (*Completer)(nil)

func NewCompleter(cfg *store.Config) *Completer {
	// default messages endpoint (public Anthropic)
	endpoint := "https://api.anthropic.com/v1/messages"
	// proxies and gateways set CLAUDE_API_ENDPOINT
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	client := api.NewClient(
		api.WithTimeout(time.Duration(cfg.LLM.TimeoutSeconds)*time.Second),
		api.WithHeader("anthropic-version", apiVersion),
		api.WithRetry(api.RetryConfig{MaxAttempts: 2, InitialWait: 500 * time.Millisecond, MaxWait: 2 * time.Second}),
		api.WithLogging(true),
	)
	return &Completer{cfg: cfg, endpoint: endpoint, client: client}
}

func (c *Completer) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	apiKey := os.Getenv("CLAUDE_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("%w: CLAUDE_API_KEY missing", llm.ErrUnavailable)
	}

	reqBody := map[string]any{
		"model":  c.cfg.LLM.Model,
		"system": system,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  c.cfg.LLM.MaxTokens,
		"temperature": c.cfg.LLM.Temperature,
	}
	resp, err := c.client.PostJSON(ctx, c.endpoint, reqBody, map[string]string{"x-api-key": apiKey})
	if err != nil {
		var se *api.StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return "", fmt.Errorf("claude rejected request: %w", err)
		}
		return "", fmt.Errorf("%w: claude: %w", llm.ErrUnavailable, err)
	}

	return extractText(resp.Body), nil
}

// extractText pulls the assistant text out of the common response shapes,
// falling back to the raw body.
func extractText(body []byte) string {
	var anyResp any
	if err := json.Unmarshal(body, &anyResp); err != nil {
		return strings.TrimSpace(string(body))
	}
	m, ok := anyResp.(map[string]any)
	if !ok {
		return strings.TrimSpace(string(body))
	}

	// 1) messages API: content blocks
	if blocks, ok := m["content"].([]any); ok {
		var parts []string
		for _, b := range blocks {
			if bm, ok := b.(map[string]any); ok {
				if t, ok := bm["text"].(string); ok {
					parts = append(parts, t)
				}
			}
		}
		if len(parts) > 0 {
			return strings.TrimSpace(strings.Join(parts, "\n"))
		}
	}
	// 2) legacy completion fields
	for _, k := range []string{"completion", "output", "output_text", "result"} {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	// 3) OpenAI-compatible gateways
	if choices, ok := m["choices"].([]any); ok && len(choices) > 0 {
		if c0, ok := choices[0].(map[string]any); ok {
			if msg, ok := c0["message"].(map[string]any); ok {
				if s, ok := msg["content"].(string); ok {
					return strings.TrimSpace(s)
				}
			}
			if s, ok := c0["text"].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
