package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/FloatinggOnion/vogu-health-be/internal"
)

// Client is the black-box inference endpoint. Generate blocks until the model
// responds, the configured call timeout elapses, or ctx is cancelled.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelVersion() string
}

const systemPrompt = "You are a health AI assistant analyzing personal health telemetry. " +
	"Be specific and evidence-based, and never invent values for days marked as having no data."

// OpenAIClient talks to any OpenAI-compatible completion endpoint.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  internal.Logger
}

func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration, logger internal.Logger) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *OpenAIClient) ModelVersion() string { return c.model }

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warnf("model call timed out after %s", time.Since(start))
			return "", fmt.Errorf("%w: model call exceeded %s", internal.ErrTimeout, c.timeout)
		}
		c.logger.Errorf("model call failed: %v", err)
		return "", fmt.Errorf("%w: %v", internal.ErrModelUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", internal.ErrModelUnavailable)
	}
	c.logger.Debugf("model call completed in %s", time.Since(start))
	return resp.Choices[0].Message.Content, nil
}

var _ Client = (*OpenAIClient)(nil)
