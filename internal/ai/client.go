// Package ai implements the executor-backed collaborators of the
// optimization engine: the agent runner, the research role, and the
// engineer role. All three share one Anthropic-backed client with retry,
// circuit breaking, rate limiting, and a concurrency cap.
package ai

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	// ModelSonnet is the default model for research and engineering calls
	ModelSonnet = "claude-sonnet-4-5-20250929"

	// ModelHaiku is the cost-efficient model for plain agent execution
	ModelHaiku = "claude-3-5-haiku-20241022"
)

// GetDefaultModel returns the default model, honoring PROMPTOPT_MODEL.
func GetDefaultModel() string {
	if model := os.Getenv("PROMPTOPT_MODEL"); model != "" {
		return model
	}
	return ModelSonnet
}

// Client is the shared transport for all collaborator calls.
type Client struct {
	client         *anthropic.Client
	model          string
	retry          RetryConfig
	circuitBreaker *CircuitBreaker
	concurrencySem *semaphore.Weighted // Caps concurrent API calls
	limiter        *rate.Limiter       // Client-side request pacing

	inputTokens  atomic.Int64
	outputTokens atomic.Int64
}

// Config holds client configuration.
type Config struct {
	APIKey            string      // Anthropic API key (falls back to ANTHROPIC_API_KEY)
	Model             string      // Default model (falls back to GetDefaultModel)
	Retry             RetryConfig // Retry configuration (a fully zero value takes the defaults)
	RequestsPerSecond float64     // Client-side rate limit (0 = unlimited)
}

// NewClient creates the shared collaborator client.
func NewClient(cfg *Config) (*Client, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = GetDefaultModel()
	}

	// Only a fully zero config takes the defaults; an explicit
	// RetryConfig{MaxRetries: 0, ...} means no retries.
	retry := cfg.Retry
	if retry == (RetryConfig{}) {
		retry = DefaultRetryConfig()
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	var circuitBreaker *CircuitBreaker
	if retry.CircuitBreakerEnabled {
		circuitBreaker = NewCircuitBreaker(retry.FailureThreshold, retry.SuccessThreshold, retry.OpenTimeout)
	}

	var concurrencySem *semaphore.Weighted
	if retry.MaxConcurrentCalls > 0 {
		concurrencySem = semaphore.NewWeighted(int64(retry.MaxConcurrentCalls))
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		client:         &client,
		model:          model,
		retry:          retry,
		circuitBreaker: circuitBreaker,
		concurrencySem: concurrencySem,
		limiter:        limiter,
	}, nil
}

// Model returns the client's default model.
func (c *Client) Model() string { return c.model }

// TokensUsed reports the cumulative prompt and completion tokens consumed
// across all calls made through this client.
func (c *Client) TokensUsed() (input, output int64) {
	return c.inputTokens.Load(), c.outputTokens.Load()
}

// CallText makes one model call and returns the concatenated text blocks of
// the response. Retry, circuit breaking, pacing, and the concurrency cap all
// apply here so callers see at most one error per logical call.
func (c *Client) CallText(ctx context.Context, operation, model, prompt string, maxTokens int) (string, error) {
	if model == "" {
		model = c.model
	}
	if maxTokens == 0 {
		maxTokens = 4096
	}

	startTime := time.Now()
	var response *anthropic.Message
	err := c.retryWithBackoff(ctx, operation, func(attemptCtx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(attemptCtx); err != nil {
				return err
			}
		}
		resp, apiErr := c.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: int64(maxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var responseText string
	for _, block := range response.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	c.inputTokens.Add(response.Usage.InputTokens)
	c.outputTokens.Add(response.Usage.OutputTokens)

	fmt.Printf("AI %s call: input=%d tokens, output=%d tokens, duration=%v\n",
		operation, response.Usage.InputTokens, response.Usage.OutputTokens, time.Since(startTime))

	return responseText, nil
}
