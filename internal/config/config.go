// Package config resolves runtime settings from defaults, a .env file,
// AUTOLOOP_ environment variables and command line flags, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "AUTOLOOP"

// Keys understood by Load.
const (
	KeyBackend         = "backend"
	KeyModel           = "model"
	KeyEndpoint        = "endpoint"
	KeyBridgeCommand   = "bridge_command"
	KeyOpenAIKey       = "openai_api_key"
	KeyAnthropicKey    = "anthropic_api_key"
	KeyGeminiKey       = "gemini_api_key"
	KeyMemoryBackend   = "memory_backend"
	KeyMemoryDir       = "memory_dir"
	KeyWorkspace       = "workspace"
	KeyPersonaFile     = "persona_file"
	KeyTranscriptDir   = "transcript_dir"
	KeyContinuous      = "continuous"
	KeyContinuousLimit = "continuous_limit"
	KeyDebug           = "debug"
	KeyLogLevel        = "log_level"
	KeyLogFile         = "log_file"
	KeyAIRepair        = "ai_repair"
	KeyEnvFile         = "env_file"
)

// vendorEnv maps config keys to the provider's own variable names, consulted
// after the AUTOLOOP_ form.
var vendorEnv = map[string]string{
	KeyOpenAIKey:    "OPENAI_API_KEY",
	KeyAnthropicKey: "ANTHROPIC_API_KEY",
	KeyGeminiKey:    "GEMINI_API_KEY",
}

// Config is the resolved runtime configuration.
type Config struct {
	Backend       string
	Model         string
	Endpoint      string
	BridgeCommand []string

	OpenAIKey    string
	AnthropicKey string
	GeminiKey    string

	MemoryBackend string
	MemoryDir     string
	Workspace     string
	PersonaFile   string
	TranscriptDir string

	Continuous      bool
	ContinuousLimit int
	Debug           bool
	LogLevel        string
	LogFile         string
	AIRepair        bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBackend, "ollama")
	v.SetDefault(KeyModel, "")
	v.SetDefault(KeyEndpoint, "")
	v.SetDefault(KeyBridgeCommand, "")
	v.SetDefault(KeyMemoryBackend, "local")
	v.SetDefault(KeyMemoryDir, ".autoloop/memory")
	v.SetDefault(KeyWorkspace, "auto_gpt_workspace")
	v.SetDefault(KeyPersonaFile, "ai_settings.yaml")
	v.SetDefault(KeyTranscriptDir, ".autoloop/transcripts")
	v.SetDefault(KeyContinuous, false)
	v.SetDefault(KeyContinuousLimit, 0)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyAIRepair, true)
	v.SetDefault(KeyEnvFile, ".env")
}

// Load resolves the configuration held by v. Flags must already be bound.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, name := range vendorEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key), name); err != nil {
			return Config{}, err
		}
	}
	if err := loadDotEnv(v, v.GetString(KeyEnvFile)); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Backend:         strings.ToLower(strings.TrimSpace(v.GetString(KeyBackend))),
		Model:           v.GetString(KeyModel),
		Endpoint:        v.GetString(KeyEndpoint),
		BridgeCommand:   strings.Fields(v.GetString(KeyBridgeCommand)),
		OpenAIKey:       v.GetString(KeyOpenAIKey),
		AnthropicKey:    v.GetString(KeyAnthropicKey),
		GeminiKey:       v.GetString(KeyGeminiKey),
		MemoryBackend:   strings.ToLower(strings.TrimSpace(v.GetString(KeyMemoryBackend))),
		MemoryDir:       v.GetString(KeyMemoryDir),
		Workspace:       v.GetString(KeyWorkspace),
		PersonaFile:     v.GetString(KeyPersonaFile),
		TranscriptDir:   v.GetString(KeyTranscriptDir),
		Continuous:      v.GetBool(KeyContinuous),
		ContinuousLimit: v.GetInt(KeyContinuousLimit),
		Debug:           v.GetBool(KeyDebug),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFile:         v.GetString(KeyLogFile),
		AIRepair:        v.GetBool(KeyAIRepair),
	}
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

// loadDotEnv registers the values of a .env file as defaults, so real
// environment variables and flags still win. A missing file is ignored.
func loadDotEnv(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	vendorKeys := make(map[string]string, len(vendorEnv))
	for key, name := range vendorEnv {
		vendorKeys[name] = key
	}
	prefix := EnvPrefix + "_"
	for name, value := range values {
		switch {
		case strings.HasPrefix(name, prefix):
			v.SetDefault(strings.ToLower(strings.TrimPrefix(name, prefix)), value)
		case vendorKeys[name] != "":
			v.SetDefault(vendorKeys[name], value)
		}
	}
	return nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	if c.ContinuousLimit < 0 {
		return fmt.Errorf("continuous limit must not be negative: %d", c.ContinuousLimit)
	}
	if c.Backend == "bridge" && len(c.BridgeCommand) == 0 {
		return errors.New("bridge backend requires a bridge command")
	}
	return nil
}

// APIKey returns the key configured for backend.
func (c Config) APIKey(backend string) string {
	switch backend {
	case "openai":
		return c.OpenAIKey
	case "anthropic":
		return c.AnthropicKey
	case "gemini":
		return c.GeminiKey
	}
	return ""
}
