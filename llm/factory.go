package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lexcodex/autoloop/framework"
)

// Backend names accepted by NewOpener.
const (
	BackendBridge    = "bridge"
	BackendOllama    = "ollama"
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
	BackendGemini    = "gemini"
)

// Backends lists every supported backend.
var Backends = []string{BackendBridge, BackendOllama, BackendOpenAI, BackendAnthropic, BackendGemini}

// Settings selects and configures a chat backend.
type Settings struct {
	Backend       string
	Model         string
	Endpoint      string
	APIKey        string
	BridgeCommand []string
	WorkDir       string
	Debug         bool
	Logger        *log.Logger
	HTTPClient    *http.Client
}

// Provider is an opened backend plus its teardown.
type Provider struct {
	Name         string
	Instrumented *Instrumented
	shutdown     func() error
}

// Opener returns the instrumented session opener.
func (p *Provider) Opener() framework.Opener {
	return p.Instrumented.Open
}

// Shutdown releases process-level resources such as the bridge helper.
func (p *Provider) Shutdown() error {
	if p.shutdown == nil {
		return nil
	}
	return p.shutdown()
}

// NewProvider builds the backend named in s.
func NewProvider(ctx context.Context, s Settings) (*Provider, error) {
	name := strings.ToLower(strings.TrimSpace(s.Backend))
	var (
		open     framework.Opener
		shutdown func() error
	)
	switch name {
	case BackendBridge:
		bridge, err := LaunchBridge(s.BridgeCommand, s.WorkDir)
		if err != nil {
			return nil, err
		}
		bridge.Logger = s.Logger
		open, shutdown = bridge.Open, bridge.Shutdown
	case "", BackendOllama:
		name = BackendOllama
		client := NewOllamaClient(s.Endpoint, s.Model)
		if s.HTTPClient != nil {
			client.SetHTTPClient(s.HTTPClient)
		}
		client.Debug = s.Debug
		client.Logger = s.Logger
		open = client.Open
	case BackendOpenAI:
		client, err := NewOpenAIClient(s.APIKey, s.Model, s.Endpoint, s.HTTPClient)
		if err != nil {
			return nil, err
		}
		client.Logger = s.Logger
		open = client.Open
	case BackendAnthropic:
		client, err := NewAnthropicClient(s.APIKey, s.Model, s.Endpoint, s.HTTPClient)
		if err != nil {
			return nil, err
		}
		client.Logger = s.Logger
		open = client.Open
	case BackendGemini:
		client, err := NewGeminiClient(ctx, s.APIKey, s.Model, s.Endpoint, s.HTTPClient)
		if err != nil {
			return nil, err
		}
		client.Logger = s.Logger
		open = client.Open
	default:
		return nil, fmt.Errorf("unknown backend %q (supported: %s)", s.Backend, strings.Join(Backends, ", "))
	}
	return &Provider{
		Name:         name,
		Instrumented: NewInstrumented(name, open, s.Logger, s.Debug),
		shutdown:     shutdown,
	}, nil
}
