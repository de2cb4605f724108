package pattern

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrectJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
	}{
		{
			name: "code fence",
			in:   "```json\n{\"a\": 1}\n```",
			want: map[string]any{"a": 1.0},
		},
		{
			name: "trailing commas",
			in:   `{"a": [1, 2,],}`,
			want: map[string]any{"a": []any{1.0, 2.0}},
		},
		{
			name: "raw newline in string",
			in:   "{\"text\": \"line one\nline two\"}",
			want: map[string]any{"text": "line one\nline two"},
		},
		{
			name: "invalid escape",
			in:   `{"path": "C:\dir"}`,
			want: map[string]any{"path": `C:\dir`},
		},
		{
			name: "missing closers",
			in:   `{"a": {"b": ["c"`,
			want: map[string]any{"a": map[string]any{"b": []any{"c"}}},
		},
		{
			name: "unterminated string",
			in:   `{"a": "unterminated`,
			want: map[string]any{"a": "unterminated"},
		},
		{
			name: "unquoted keys",
			in:   `{name: "x", args_1: {}}`,
			want: map[string]any{"name": "x", "args_1": map[string]any{}},
		},
		{
			name: "single quotes",
			in:   `{'a': 'it\'s "fine"'}`,
			want: map[string]any{"a": `it's "fine"`},
		},
		{
			name: "smart quotes",
			in:   `{“a”: “b”}`,
			want: map[string]any{"a": "b"},
		},
		{
			name: "stray closer",
			in:   `{"a": 1}}`,
			want: map[string]any{"a": 1.0},
		},
		{
			name: "mismatched closer",
			in:   `{"a": [1, 2}`,
			want: map[string]any{"a": []any{1.0, 2.0}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got any
			require.NoError(t, json.Unmarshal([]byte(CorrectJSON(tt.in)), &got), CorrectJSON(tt.in))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CorrectJSON(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestCorrectJSONLeavesValidJSONAlone(t *testing.T) {
	valid := `{"command": {"name": "google", "args": {"input": "a \"quoted\" \u00e9 value"}}, "n": [true, false, null, 1e5]}`
	assert.Equal(t, valid, CorrectJSON(valid))
}
