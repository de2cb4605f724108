package pattern

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lexcodex/autoloop/framework"
)

// Thoughts is the typed view of a reply's "thoughts" mapping. Missing fields
// are empty.
type Thoughts struct {
	Text      string
	Reasoning string
	Plan      string
	Criticism string
	Speak     string
}

// ThoughtsFrom reads the known fields out of a thoughts mapping.
func ThoughtsFrom(m map[string]any) Thoughts {
	if m == nil {
		return Thoughts{}
	}
	field := func(key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return framework.Stringify(m[key])
	}
	return Thoughts{
		Text:      field("text"),
		Reasoning: field("reasoning"),
		Plan:      NormalizePlan(m["plan"]),
		Criticism: field("criticism"),
		Speak:     field("speak"),
	}
}

// NormalizePlan flattens a plan given as a string, a list or a mapping into
// newline separated text.
func NormalizePlan(plan any) string {
	switch framework.KindOf(plan) {
	case framework.KindString:
		return plan.(string)
	case framework.KindSequence:
		items := plan.([]any)
		lines := make([]string, 0, len(items))
		for _, item := range items {
			lines = append(lines, framework.Stringify(item))
		}
		return strings.Join(lines, "\n")
	case framework.KindMapping:
		m := plan.(map[string]any)
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %s", k, framework.Stringify(m[k])))
		}
		return strings.Join(lines, "\n")
	case framework.KindNull, framework.KindInvalid:
		return ""
	default:
		return framework.Stringify(plan)
	}
}

// PlanLines splits a normalised plan into display lines without the leading
// bullet marker.
func PlanLines(plan string) []string {
	var lines []string
	for _, line := range strings.Split(plan, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "- "))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
