package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lexcodex/autoloop/framework"
	"github.com/lexcodex/autoloop/internal/logger"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient answers through the OpenAI chat completions API.
type OpenAIClient struct {
	Model  string
	Logger *log.Logger
	client openai.Client
}

// NewOpenAIClient builds a client. httpClient and baseURL are optional.
func NewOpenAIClient(apiKey, model, baseURL string, httpClient *http.Client) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key not configured")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient), option.WithMaxRetries(0))
	}
	return &OpenAIClient{Model: model, client: openai.NewClient(opts...)}, nil
}

// Open starts a conversation that keeps its history client side.
func (c *OpenAIClient) Open(ctx context.Context) (framework.ChatBackend, error) {
	return newHistorySession(c.Complete), nil
}

// Complete sends turns as a chat completion request.
func (c *OpenAIClient) Complete(ctx context.Context, turns []framework.Turn) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.Model),
		Messages: openAIMessages(turns),
	}
	c.logger().Debug("sending OpenAI request", "model", c.Model, "message_count", len(turns))
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("no response choices returned")
	}
	content := completion.Choices[0].Message.Content
	c.logger().Debug("OpenAI response received", "content_length", len(content))
	return content, nil
}

func (c *OpenAIClient) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logger.Logger
}

func openAIMessages(turns []framework.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case framework.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Content))
		case framework.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	return messages
}
