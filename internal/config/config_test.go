package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.Set(KeyEnvFile, filepath.Join(t.TempDir(), "missing.env"))
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Backend)
	assert.Equal(t, "local", cfg.MemoryBackend)
	assert.Equal(t, "ai_settings.yaml", cfg.PersonaFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.AIRepair)
	assert.False(t, cfg.Continuous)
	assert.Empty(t, cfg.BridgeCommand)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"AUTOLOOP_BACKEND=openai\nAUTOLOOP_MODEL=from-dotenv\nAUTOLOOP_CONTINUOUS_LIMIT=4\nOPENAI_API_KEY=sk-dotenv\nUNRELATED=1\n"), 0o644))
	t.Setenv("AUTOLOOP_MODEL", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("continuous", false, "")
	flags.String("backend", "", "")
	require.NoError(t, flags.Parse([]string{"--continuous"}))

	v := viper.New()
	v.Set(KeyEnvFile, envFile)
	require.NoError(t, v.BindPFlag(KeyContinuous, flags.Lookup("continuous")))
	require.NoError(t, v.BindPFlag(KeyBackend, flags.Lookup("backend")))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Backend)
	assert.Equal(t, "from-env", cfg.Model)
	assert.Equal(t, 4, cfg.ContinuousLimit)
	assert.True(t, cfg.Continuous)
	assert.Equal(t, "sk-dotenv", cfg.APIKey("openai"))
	assert.Empty(t, cfg.APIKey("ollama"))
}

func TestLoadVendorKeyFromEnvironment(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "vendor")
	cfg, err := Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, "vendor", cfg.AnthropicKey)

	t.Setenv("AUTOLOOP_ANTHROPIC_API_KEY", "prefixed")
	cfg, err = Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.AnthropicKey)
}

func TestLoadDebugForcesDebugLevel(t *testing.T) {
	t.Setenv("AUTOLOOP_DEBUG", "true")
	cfg, err := Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Config{ContinuousLimit: -1}.Validate())
	assert.Error(t, Config{Backend: "bridge"}.Validate())
	assert.NoError(t, Config{Backend: "bridge", BridgeCommand: []string{"node", "bridge.js"}}.Validate())

	t.Setenv("AUTOLOOP_BRIDGE_COMMAND", "node  bridge.js --headless")
	t.Setenv("AUTOLOOP_BACKEND", "Bridge")
	cfg, err := Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"node", "bridge.js", "--headless"}, cfg.BridgeCommand)
}
