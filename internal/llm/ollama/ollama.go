// Package ollama completes prompts against a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nileshindira/trading-persona/internal/api"
	"github.com/nileshindira/trading-persona/internal/interfaces"
	"github.com/nileshindira/trading-persona/internal/llm"
	"github.com/nileshindira/trading-persona/internal/logger"
	"github.com/nileshindira/trading-persona/internal/trace"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3.1"
)

// Client calls the /api/generate endpoint without streaming.
type Client struct {
	baseURL     string
	model       string
	temperature float32
	topP        float32
	numPredict  int
	timeout     time.Duration
	client      *api.Client
}

var _ interfaces.Completer = (*Client)(nil)

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithSampling sets temperature, top_p and the token limit.
func WithSampling(temperature, topP float32, maxTokens int) Option {
	return func(c *Client) {
		c.temperature = temperature
		c.topP = topP
		c.numPredict = maxTokens
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		model:   defaultModel,
		timeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = api.NewClient(
		api.WithBaseURL(c.baseURL),
		api.WithTimeout(c.timeout),
		api.WithLogging(true),
	)
	return c
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"top_p,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Model     string `json:"model"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	EvalCount int    `json:"eval_count,omitempty"`
}

func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "ollama-generate")
	defer span.End()

	start := time.Now()
	resp, err := c.client.PostJSON(ctx, "/api/generate", generateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: system,
		Options: generateOptions{
			Temperature: c.temperature,
			TopP:        c.topP,
			NumPredict:  c.numPredict,
		},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("%w: ollama: %w", llm.ErrUnavailable, err)
	}

	var out generateResponse
	if err := resp.ParseJSON(&out); err != nil {
		return "", err
	}

	logger.Debug(ctx, "Ollama completion received",
		"model", c.model,
		"eval_count", out.EvalCount,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return out.Response, nil
}
