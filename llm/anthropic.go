package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/log"

	"github.com/lexcodex/autoloop/framework"
	"github.com/lexcodex/autoloop/internal/logger"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicClient answers through the Anthropic messages API.
type AnthropicClient struct {
	Model     string
	MaxTokens int64
	Logger    *log.Logger
	client    anthropic.Client
}

// NewAnthropicClient builds a client. httpClient and baseURL are optional.
func NewAnthropicClient(apiKey, model, baseURL string, httpClient *http.Client) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key not configured")
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient), option.WithMaxRetries(0))
	}
	return &AnthropicClient{Model: model, MaxTokens: 4096, client: anthropic.NewClient(opts...)}, nil
}

// Open starts a conversation that keeps its history client side.
func (c *AnthropicClient) Open(ctx context.Context) (framework.ChatBackend, error) {
	return newHistorySession(c.Complete), nil
}

// Complete sends turns as a messages request. System turns become the system
// prompt.
func (c *AnthropicClient) Complete(ctx context.Context, turns []framework.Turn) (string, error) {
	system, rest := splitSystem(turns)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.Model),
		MaxTokens: c.MaxTokens,
		Messages:  anthropicMessages(rest),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	c.logger().Debug("sending Anthropic request", "model", c.Model, "message_count", len(rest))
	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	var b strings.Builder
	for _, block := range message.Content {
		b.WriteString(block.Text)
	}
	if b.Len() == 0 {
		return "", errors.New("empty response content")
	}
	return b.String(), nil
}

func (c *AnthropicClient) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logger.Logger
}

func anthropicMessages(turns []framework.Turn) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, turn := range turns {
		block := anthropic.NewTextBlock(turn.Content)
		if turn.Role == framework.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	return messages
}
