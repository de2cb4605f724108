package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lexcodex/autoloop/framework"
	"github.com/lexcodex/autoloop/internal/logger"
)

// DefaultOllamaEndpoint is used when no endpoint is configured.
const DefaultOllamaEndpoint = "http://localhost:11434"

// OllamaClient talks to a local Ollama server through /api/chat.
type OllamaClient struct {
	Endpoint string
	Model    string
	Options  map[string]any
	Debug    bool
	Logger   *log.Logger
	client   *http.Client
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaResponse struct {
	Text       string         `json:"text"`
	Response   string         `json:"response"`
	Message    *ollamaMessage `json:"message"`
	DoneReason string         `json:"done_reason"`
	Error      string         `json:"error"`
}

// NewOllamaClient builds a client for endpoint and model.
func NewOllamaClient(endpoint, model string) *OllamaClient {
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}
	return &OllamaClient{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Model:    model,
		client: &http.Client{
			Timeout: 3 * time.Minute,
		},
	}
}

// SetHTTPClient replaces the transport, mainly for tests.
func (c *OllamaClient) SetHTTPClient(client *http.Client) {
	c.client = client
}

// Open starts a conversation that keeps its history client side.
func (c *OllamaClient) Open(ctx context.Context) (framework.ChatBackend, error) {
	return newHistorySession(c.Complete), nil
}

// Complete sends turns to /api/chat and returns the assistant message.
func (c *OllamaClient) Complete(ctx context.Context, turns []framework.Turn) (string, error) {
	messages := make([]ollamaMessage, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, ollamaMessage{Role: string(turn.Role), Content: turn.Content})
	}
	payload := map[string]any{
		"model":    c.model(),
		"messages": messages,
		"stream":   false,
	}
	if len(c.Options) > 0 {
		payload["options"] = c.Options
	}
	resp, err := c.doRequest(ctx, "/api/chat", payload)
	if err != nil {
		return "", err
	}
	if resp.Message != nil && resp.Message.Content != "" {
		return resp.Message.Content, nil
	}
	return firstNonEmpty(resp.Text, resp.Response), nil
}

func (c *OllamaClient) getHTTPClient() *http.Client {
	if c.client != nil {
		return c.client
	}
	c.client = &http.Client{Timeout: 60 * time.Second}
	return c.client
}

func (c *OllamaClient) model() string {
	if c.Model != "" {
		return c.Model
	}
	return "llama3"
}

func (c *OllamaClient) doRequest(ctx context.Context, path string, payload any) (*ollamaResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	c.logf("request %s payload: %s", path, truncate(string(body), 2048))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(msg))
		if detail != "" {
			return nil, fmt.Errorf("ollama error: %s: %s", resp.Status, detail)
		}
		return nil, fmt.Errorf("ollama error: %s", resp.Status)
	}
	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logf("response %s payload: %s", path, truncate(string(responseBody), 2048))
	var raw ollamaResponse
	if err := json.Unmarshal(responseBody, &raw); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	if raw.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", raw.Error)
	}
	return &raw, nil
}

func (c *OllamaClient) logf(format string, args ...any) {
	if !c.Debug {
		return
	}
	l := c.Logger
	if l == nil {
		l = logger.Logger
	}
	l.Debugf("[ollama] "+format, args...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
