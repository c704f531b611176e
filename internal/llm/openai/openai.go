package openai

import (
	"context"
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

const defaultEndpoint = "https://api.openai.com/v1/chat/completions"

// Completer calls the chat completions API.
type Completer struct {
	cfg      *store.Config
	endpoint string
	apiKey   string
	client   *api.Client
}

var _ interfaces.Completer = (*Completer)(nil)

func NewCompleter(cfg *store.Config) *Completer {
	endpoint := defaultEndpoint
	if ep := os.Getenv("OPENAI_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Completer{
		cfg:      cfg,
		endpoint: endpoint,
		apiKey:   os.Getenv("OPENAI_API_KEY"),
		client: api.NewClient(
			api.WithTimeout(time.Duration(cfg.LLM.TimeoutSeconds)*time.Second),
			api.WithRetry(api.RetryConfig{MaxAttempts: 2, InitialWait: 500 * time.Millisecond, MaxWait: 2 * time.Second}),
			api.WithLogging(true),
		),
	}
}

func (c *Completer) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	if c.apiKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY missing", llm.ErrUnavailable)
	}

	body := map[string]any{
		"model": c.cfg.LLM.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": prompt},
		},
		"temperature": c.cfg.LLM.Temperature,
		"top_p":       c.cfg.LLM.TopP,
		"max_tokens":  c.cfg.LLM.MaxTokens,
	}
	resp, err := c.client.PostJSON(ctx, c.endpoint, body, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		var se *api.StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return "", fmt.Errorf("openai rejected request: %w", err)
		}
		return "", fmt.Errorf("%w: openai: %w", llm.ErrUnavailable, err)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := resp.ParseJSON(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
