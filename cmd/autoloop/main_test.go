package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/autoloop/agents"
	"github.com/lexcodex/autoloop/agents/pattern"
	"github.com/lexcodex/autoloop/internal/console"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := root.Execute()
	return out.String(), err
}

func TestRepairCommand(t *testing.T) {
	out, err := execute(t, "Sure: {'command': {'name': 'do_nothing', args: {}},}", "repair")
	require.NoError(t, err)

	var got struct {
		Strategy  string            `json:"strategy"`
		Directive pattern.Directive `json:"directive"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "do_nothing", got.Directive.Name)
	assert.NotEqual(t, pattern.StrategyDirect, got.Strategy)
}

func TestRepairCommandInvalid(t *testing.T) {
	out, err := execute(t, "no json here", "repair")
	require.NoError(t, err)
	assert.Contains(t, out, `"error": "invalid_json"`)
	assert.Contains(t, out, pattern.FormatEnforcement)
}

func TestMemoryCommands(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{"local", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			flags := []string{"--use-memory", backend, "--memory-dir", filepath.Join(dir, backend)}

			out, err := execute(t, "", append([]string{"memory", "add", "the", "oven", "is", "hot"}, flags...)...)
			require.NoError(t, err)
			assert.Equal(t, "Committing memory with string \"the oven is hot\"\n", out)

			out, err = execute(t, "", append([]string{"memory", "stats"}, flags...)...)
			require.NoError(t, err)
			assert.Equal(t, backend+"\t1\n", out)

			out, err = execute(t, "", append([]string{"memory", "search", "oven", "-k", "3"}, flags...)...)
			require.NoError(t, err)
			var results []string
			require.NoError(t, json.Unmarshal([]byte(out), &results))
			assert.Equal(t, []string{"the oven is hot"}, results)

			_, err = execute(t, "", append([]string{"memory", "clear"}, flags...)...)
			require.NoError(t, err)
			out, err = execute(t, "", append([]string{"memory", "stats"}, flags...)...)
			require.NoError(t, err)
			assert.Equal(t, backend+"\t0\n", out)
		})
	}
}

func TestCommandsCommand(t *testing.T) {
	out, err := execute(t, "", "commands", "--workspace", t.TempDir())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "1. Read file: \"read_file\""), out)
	assert.Contains(t, out, "\"task_complete\"")
}

func TestSetupPersonaPromptsAndSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), agents.PersonaFileName)
	var out bytes.Buffer
	con := console.NewWithIO(strings.NewReader("Chef-GPT\nan AI that cooks\nInvent a dish\n\n"), &out)

	p, err := setupPersona(con, path)
	require.NoError(t, err)
	assert.Equal(t, agents.Persona{Name: "Chef-GPT", Role: "an AI that cooks", Goals: []string{"Invent a dish"}}, p)
	assert.Contains(t, out.String(), "Chef-GPT here!")

	saved, err := agents.LoadPersona(path)
	require.NoError(t, err)
	assert.Equal(t, p, saved)
}

func TestSetupPersonaDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), agents.PersonaFileName)
	con := console.NewWithIO(strings.NewReader("\n\n\n"), &bytes.Buffer{})
	p, err := setupPersona(con, path)
	require.NoError(t, err)
	assert.Equal(t, agents.DefaultPersona(), p)
}

func TestSetupPersonaWelcomeBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), agents.PersonaFileName)
	saved := agents.Persona{Name: "Old", Role: "r", Goals: []string{"g"}}
	require.NoError(t, saved.Save(path))

	var out bytes.Buffer
	p, err := setupPersona(console.NewWithIO(strings.NewReader("y\n"), &out), path)
	require.NoError(t, err)
	assert.Equal(t, saved, p)
	assert.Contains(t, out.String(), "Would you like me to return to being Old?")

	p, err = setupPersona(console.NewWithIO(strings.NewReader("n\nNew\n\n\n"), &bytes.Buffer{}), path)
	require.NoError(t, err)
	assert.Equal(t, "New", p.Name)
	assert.Equal(t, agents.DefaultRole, p.Role)
}
