package pattern

import (
	"errors"
	"strings"
)

// ErrNoBracketsFound reports text without any candidate JSON object.
var ErrNoBracketsFound = errors.New("no brackets found")

// ExtractJSON returns the substring spanning the first `{` through the last
// `}`. Nested braces are not balanced; the heuristic only strips prose that
// surrounds a single top-level object.
func ExtractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return "", ErrNoBracketsFound
	}
	return raw[start : end+1], nil
}

// ExtractBalancedJSON returns the first fully balanced `{...}` object in raw:
// the closing object with the leftmost opening brace. An opening brace that
// never closes is skipped. Braces inside JSON string literals do not count.
// The scan is a single pass over raw.
func ExtractBalancedJSON(raw string) (string, error) {
	first := strings.IndexByte(raw, '{')
	if first < 0 {
		return "", ErrNoBracketsFound
	}
	var open []int
	bestStart, bestEnd := -1, -1
	inString := false
	escaped := false
	for i := first; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			open = append(open, i)
		case '}':
			if len(open) == 0 {
				continue
			}
			start := open[len(open)-1]
			open = open[:len(open)-1]
			if bestStart < 0 || start < bestStart {
				bestStart, bestEnd = start, i
			}
			if len(open) == 0 {
				return raw[bestStart : bestEnd+1], nil
			}
		}
	}
	if bestStart < 0 {
		return "", ErrNoBracketsFound
	}
	return raw[bestStart : bestEnd+1], nil
}
