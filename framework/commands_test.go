package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryRejectsDuplicatesAndBlankNames(t *testing.T) {
	reg := NewCommandRegistry()
	assert.NoError(t, reg.Register(echoCommand("echo")))
	assert.Error(t, reg.Register(echoCommand("echo")))
	assert.Error(t, reg.Register(echoCommand("  ")))
	assert.Error(t, reg.Register(nil))
}

func TestRegistryOrdering(t *testing.T) {
	reg := newTestRegistry(t, echoCommand("zeta"), echoCommand("alpha"))
	assert.Equal(t, []string{"alpha", "zeta"}, reg.Names())

	all := reg.All()
	assert.Len(t, all, 2)
	assert.Equal(t, "zeta", all[0].Name())

	_, ok := reg.Get("missing")
	assert.False(t, ok)
}

func TestRenderCommandsToPrompt(t *testing.T) {
	read := &CommandFunc{
		CommandName: "read_file",
		Summary:     "Read file",
		Params:      []CommandParameter{{Name: "file", Description: "file"}},
	}
	write := &CommandFunc{
		CommandName: "write_to_file",
		Summary:     "Write to file",
		Params:      []CommandParameter{{Name: "file"}, {Name: "text"}},
	}
	got := RenderCommandsToPrompt([]Command{read, write})
	want := "1. Read file: \"read_file\", args: \"file\": \"<file>\"\n" +
		"2. Write to file: \"write_to_file\", args: \"file\": \"<file>\", \"text\": \"<text>\""
	assert.Equal(t, want, got)
	assert.Equal(t, "No commands available.", RenderCommandsToPrompt(nil))
}
