package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/classpilot/backend/internal/metrics"
	"github.com/classpilot/backend/pkg/circuitbreaker"
	"github.com/classpilot/backend/pkg/logger"
)

// ErrMissingAPIKey is returned by NewClient when no provider credential is
// configured. Construction fails before any network call can be made.
var ErrMissingAPIKey = errors.New("llm provider API key is not configured")

// Client wraps the hosted completion API. It owns the HTTP transport and the
// circuit breaker; retry policy belongs to the callers, which know which of
// their operations tolerate a retried request.
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
	breaker   *circuitbreaker.Breaker
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
	// JSONMode constrains the model to emit a single JSON object.
	JSONMode bool
}

type CompletionResponse struct {
	Content string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func NewClient(apiKey, model string, maxTokens, timeoutSec int) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if timeoutSec <= 0 {
		timeoutSec = 60
	}

	breaker := circuitbreaker.New("llm", circuitbreaker.Config{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		HalfOpenProbes:   2,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	logger.Info("LLM client initialized", zap.String("model", model))

	return &Client{
		api:       openai.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokens,
		timeout:   time.Duration(timeoutSec) * time.Second,
		breaker:   breaker,
	}, nil
}

// Complete issues a single completion request. It never retries; a failure
// surfaces to the caller exactly once per invocation.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var result *CompletionResponse

	err := c.breaker.Execute(func() error {
		resp, err := c.api.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return fmt.Errorf("completion request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("completion returned no choices")
		}

		metrics.LLMTokensUsed.WithLabelValues(c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.LLMTokensUsed.WithLabelValues(c.model, "completion").Add(float64(resp.Usage.CompletionTokens))

		logger.Debug("LLM completion generated",
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		)

		result = &CompletionResponse{
			Content: resp.Choices[0].Message.Content,
			Usage: Usage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// IsTransient reports whether a provider error is a rate limit (429) or a
// provider-side failure (5xx). Everything else, including network errors and
// other 4xx responses, is terminal.
func IsTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
	}

	return false
}
