package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"

	"github.com/lexcodex/autoloop/framework"
	"github.com/lexcodex/autoloop/internal/logger"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient answers through the Gemini API.
type GeminiClient struct {
	Model  string
	Logger *log.Logger
	client *genai.Client
}

// NewGeminiClient builds a client. httpClient and baseURL are optional.
func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string, httpClient *http.Client) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("google API key not configured")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{Model: model, client: client}, nil
}

// Open starts a conversation that keeps its history client side.
func (c *GeminiClient) Open(ctx context.Context) (framework.ChatBackend, error) {
	return newHistorySession(c.Complete), nil
}

// Complete sends turns to GenerateContent. System turns become the system
// instruction; thought parts are dropped from the reply.
func (c *GeminiClient) Complete(ctx context.Context, turns []framework.Turn) (string, error) {
	system, rest := splitSystem(turns)
	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	c.logger().Debug("sending Gemini request", "model", c.Model, "message_count", len(rest))
	result, err := c.client.Models.GenerateContent(ctx, c.Model, geminiContents(rest), config)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	text := geminiText(result)
	if text == "" {
		return "", errors.New("empty response content")
	}
	return text, nil
}

func (c *GeminiClient) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logger.Logger
}

func geminiContents(turns []framework.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		if turn.Role == framework.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: turn.Content}},
			Role:  role,
		})
	}
	return contents
}

func geminiText(result *genai.GenerateContentResponse) string {
	if result == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text == "" || part.Thought {
				continue
			}
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
