package pattern

import (
	"fmt"
	"strings"
)

var smartQuotes = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
)

// CorrectJSON applies the fixes for the mistakes models most often make when
// asked for JSON: code fences, smart quotes, single-quoted strings, unquoted
// keys, raw control characters and bad escapes inside strings, trailing
// commas, stray closers and missing closing brackets. The result is not
// guaranteed to decode; callers still run a strict decode afterwards.
func CorrectJSON(s string) string {
	s = stripCodeFence(strings.TrimSpace(s))
	s = smartQuotes.Replace(s)

	out := make([]byte, 0, len(s)+8)
	var stack []byte
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			switch {
			case ch == '\\':
				if i+1 < len(s) {
					next := s[i+1]
					if quote == '\'' && next == '\'' {
						out = append(out, '\'')
						i++
						continue
					}
					if validEscape(s, i+1) {
						out = append(out, '\\', next)
						i++
						continue
					}
				}
				out = append(out, '\\', '\\')
			case ch == quote:
				out = append(out, '"')
				quote = 0
			case ch == '"':
				out = append(out, '\\', '"')
			case ch == '\n':
				out = append(out, '\\', 'n')
			case ch == '\r':
				out = append(out, '\\', 'r')
			case ch == '\t':
				out = append(out, '\\', 't')
			case ch < 0x20:
				out = append(out, fmt.Sprintf(`\u%04x`, ch)...)
			default:
				out = append(out, ch)
			}
			continue
		}

		switch ch {
		case '"', '\'':
			quote = ch
			out = append(out, '"')
		case '{', '[':
			stack = append(stack, ch)
			out = append(out, ch)
		case '}', ']':
			opener := byte('{')
			if ch == ']' {
				opener = '['
			}
			if indexOfByte(stack, opener) < 0 {
				continue
			}
			out = trimTrailingComma(out)
			for len(stack) > 0 && stack[len(stack)-1] != opener {
				out = append(out, closerFor(stack[len(stack)-1]))
				stack = stack[:len(stack)-1]
			}
			stack = stack[:len(stack)-1]
			out = append(out, ch)
		default:
			if isIdentStart(ch) && expectingKey(out, stack) {
				end := i
				for end < len(s) && isIdentPart(s[end]) {
					end++
				}
				colon := end
				for colon < len(s) && isSpace(s[colon]) {
					colon++
				}
				if colon < len(s) && s[colon] == ':' {
					out = append(out, '"')
					out = append(out, s[i:end]...)
					out = append(out, '"')
					i = end - 1
					continue
				}
			}
			out = append(out, ch)
		}
	}
	if quote != 0 {
		out = append(out, '"')
	}
	out = trimTrailingComma(out)
	for j := len(stack) - 1; j >= 0; j-- {
		out = append(out, closerFor(stack[j]))
	}
	return string(out)
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

func validEscape(s string, i int) bool {
	switch s[i] {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		return true
	case 'u':
		if i+4 >= len(s) {
			return false
		}
		for _, c := range []byte(s[i+1 : i+5]) {
			if !isHex(c) {
				return false
			}
		}
		return true
	}
	return false
}

// expectingKey reports whether the next token in an object is a member name.
func expectingKey(out []byte, stack []byte) bool {
	if len(stack) == 0 || stack[len(stack)-1] != '{' {
		return false
	}
	for j := len(out) - 1; j >= 0; j-- {
		if isSpace(out[j]) {
			continue
		}
		return out[j] == '{' || out[j] == ','
	}
	return false
}

func trimTrailingComma(out []byte) []byte {
	j := len(out) - 1
	for j >= 0 && isSpace(out[j]) {
		j--
	}
	if j >= 0 && out[j] == ',' {
		return append(out[:j], out[j+1:]...)
	}
	return out
}

func closerFor(opener byte) byte {
	if opener == '[' {
		return ']'
	}
	return '}'
}

func indexOfByte(b []byte, c byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == c {
			return i
		}
	}
	return -1
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') || c == '-' }
