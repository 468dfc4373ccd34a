package llm

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/tripalhq/tripal/internal/log"
)

// ClientConfig contains the required parameters for the Genkit-backed model
// client.
type ClientConfig struct {
	Genkit *genkit.Genkit

	// ModelName is the provider-qualified model name
	// (e.g. "openai/gpt-4o-mini", "googleai/gemini-2.5-flash").
	ModelName string

	Temperature float32
	Logger      log.Logger

	// Retry configures backoff for transient provider failures
	// (zero value uses defaults).
	Retry RetryConfig

	// RateLimiter proactively limits provider calls (nil = default).
	RateLimiter *rate.Limiter
}

func (cfg ClientConfig) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Client is a Backend implemented on Genkit. It is stateless per request and
// safe for concurrent use across sessions.
type Client struct {
	g           *genkit.Genkit
	modelName   string
	temperature float32
	retry       RetryConfig
	limiter     *rate.Limiter
	logger      log.Logger
}

// NewClient creates a model client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	// Default: 10 requests/sec sustained, burst of 30.
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}

	return &Client{
		g:           cfg.Genkit,
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		retry:       retry,
		limiter:     limiter,
		logger:      cfg.Logger,
	}, nil
}

// Component implements Backend.
func (c *Client) Component() string {
	return Component
}

// Generate implements Backend. Tool requests are returned, not executed:
// the agent loop owns tool execution and feeds results back through the
// next round's prompt.
func (c *Client) Generate(ctx context.Context, round int, req Request, emit EmitFunc) (*ai.ModelResponse, error) {
	streamPath := StreamPath(Component, round)

	// Tracks whether any token reached the consumer. Once tokens are out,
	// a retry would duplicate them, so retries are only allowed before
	// the first token.
	var streamed atomic.Bool

	cb := func(_ context.Context, chunk *ai.ModelResponseChunk) error {
		if chunk == nil {
			return nil
		}
		for _, part := range chunk.Content {
			if part.Text == "" {
				continue
			}
			streamed.Store(true)
			emit(RawEvent{Path: streamPath, Token: part.Text})
		}
		return nil
	}

	opts := []ai.GenerateOption{
		ai.WithModelName(c.modelName),
		ai.WithMessages(req.Messages...),
		ai.WithConfig(map[string]any{"temperature": c.temperature}),
		ai.WithReturnToolRequests(true),
		ai.WithStreaming(cb),
	}
	if len(req.Tools) > 0 {
		opts = append(opts, ai.WithTools(req.Tools...))
	}

	resp, err := c.generateWithRetry(ctx, opts, &streamed)
	if err != nil {
		return nil, err
	}

	// Rounds that only request tools have no text; the empty final event
	// is still emitted so the run log stays complete per invocation.
	emit(RawEvent{Path: FinalPath(Component, round), Final: resp.Text()})

	return resp, nil
}
