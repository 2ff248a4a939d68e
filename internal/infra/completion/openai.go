package completion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"time"

	domainCompletion "feedback_survey_bot/internal/domain/completion"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

var ErrEmptyCompletion = errors.New("completion service returned no choices")

// Config configures the OpenAI-compatible completion client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	// InitialBackoff is the delay before the first retry; it doubles per attempt.
	InitialBackoff time.Duration
}

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	api    *openai.Client
	cfg    Config
	logger *logrus.Entry
}

var _ domainCompletion.Client = (*OpenAIClient)(nil)

func NewOpenAIClient(cfg Config, logger *logrus.Entry) *OpenAIClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	if cfg.Model == "" {
		cfg.Model = openai.GPT4
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	return &OpenAIClient{
		api:    openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger,
	}
}

// Complete sends one system and one user message and returns the first choice.
// Rate limits, server errors and network failures are retried with exponential backoff.
func (c *OpenAIClient) Complete(ctx context.Context, req domainCompletion.Request) (string, error) {
	temperature := req.Temperature
	if temperature == 0 {
		// go-openai drops a zero temperature from the payload.
		temperature = math.SmallestNonzeroFloat32
	}
	chatReq := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
	}

	var lastErr error
	backoff := c.cfg.InitialBackoff
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff.String(),
			}).WithError(lastErr).Warn("Retrying completion request")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		text, err := c.completeOnce(ctx, chatReq)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
	}
	return "", fmt.Errorf("completion failed: %w", lastErr)
}

func (c *OpenAIClient) completeOnce(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(attemptCtx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
