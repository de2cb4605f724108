package framework

import (
	"path/filepath"
	"regexp"
	"strings"
)

// MatchGlob matches a slash separated path against pattern. Patterns without
// "**" follow filepath.Match; "**" also crosses directory boundaries, so
// "src/**/*.go" matches "src/a/b/c.go".
func MatchGlob(pattern, value string) bool {
	if pattern == "" {
		return false
	}
	if pattern == "**" {
		return true
	}
	pattern = filepath.ToSlash(pattern)
	value = filepath.ToSlash(value)
	if !strings.Contains(pattern, "**") {
		ok, err := filepath.Match(pattern, value)
		return err == nil && ok
	}
	regex, err := regexp.Compile(globToRegex(pattern))
	if err != nil {
		return false
	}
	return regex.MatchString(value)
}

func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch ch {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				i++
				// "**/" may also match no directory at all.
				if i+1 < len(runes) && runes[i+1] == '/' {
					i++
					b.WriteString("(?:.*/)?")
				} else {
					b.WriteString(".*")
				}
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '.', '+', '(', ')', '|', '^', '$', '[', ']', '{', '}', '\\':
			b.WriteRune('\\')
			b.WriteRune(ch)
		default:
			b.WriteRune(ch)
		}
	}
	b.WriteString("$")
	return b.String()
}
