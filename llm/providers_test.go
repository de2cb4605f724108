package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/lexcodex/autoloop/framework"
)

func conversation() []framework.Turn {
	return []framework.Turn{
		framework.NewTurn(framework.RoleSystem, "be terse"),
		framework.NewTurn(framework.RoleUser, "hi"),
		framework.NewTurn(framework.RoleAssistant, "hello"),
		framework.NewTurn(framework.RoleUser, "again"),
	}
}

func TestSplitSystem(t *testing.T) {
	turns := append([]framework.Turn{framework.NewTurn(framework.RoleSystem, "second rule")}, conversation()...)
	system, rest := splitSystem(turns)
	assert.Equal(t, "second rule\n\nbe terse", system)
	assert.Len(t, rest, 3)
}

func TestOpenAIClientComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		var payload struct {
			Model    string           `json:"model"`
			Messages []map[string]any `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "gpt-test", payload.Model)
		assert.Len(t, payload.Messages, 4)
		assert.Equal(t, "system", payload.Messages[0]["role"])
		assert.Equal(t, "assistant", payload.Messages[2]["role"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test",` +
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"pong"}}]}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("key", "gpt-test", server.URL+"/", server.Client())
	require.NoError(t, err)
	got, err := client.Complete(context.Background(), conversation())
	require.NoError(t, err)
	assert.Equal(t, "pong", got)
}

func TestOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("", "", "", nil)
	assert.Error(t, err)
}

func TestAnthropicClientComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		var payload struct {
			System   []map[string]any `json:"system"`
			Messages []map[string]any `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		if assert.Len(t, payload.System, 1) {
			assert.Equal(t, "be terse", payload.System[0]["text"])
		}
		assert.Len(t, payload.Messages, 3)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"m1","type":"message","role":"assistant","model":"claude-test",` +
			`"content":[{"type":"text","text":"pong"}],"stop_reason":"end_turn",` +
			`"usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer server.Close()

	client, err := NewAnthropicClient("key", "claude-test", server.URL+"/", server.Client())
	require.NoError(t, err)
	got, err := client.Complete(context.Background(), conversation())
	require.NoError(t, err)
	assert.Equal(t, "pong", got)
}

func TestGeminiClientComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-test:generateContent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[` +
			`{"text":"thinking","thought":true},{"text":"pong"}]}}]}`))
	}))
	defer server.Close()

	client, err := NewGeminiClient(context.Background(), "key", "gemini-test", server.URL+"/", server.Client())
	require.NoError(t, err)
	got, err := client.Complete(context.Background(), conversation())
	require.NoError(t, err)
	assert.Equal(t, "pong", got)
}

func TestGeminiContentsRoles(t *testing.T) {
	_, rest := splitSystem(conversation())
	contents := geminiContents(rest)
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "", geminiText(nil))
	assert.Equal(t, "", geminiText(&genai.GenerateContentResponse{}))
}

func TestNewProviderUnknownBackend(t *testing.T) {
	_, err := NewProvider(context.Background(), Settings{Backend: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridge, ollama, openai, anthropic, gemini")

	p, err := NewProvider(context.Background(), Settings{})
	require.NoError(t, err)
	assert.Equal(t, BackendOllama, p.Name)
	assert.NoError(t, p.Shutdown())
}
