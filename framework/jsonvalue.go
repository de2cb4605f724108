package framework

import (
	"encoding/json"
	"fmt"
)

// Kind tags the shape of a decoded JSON value. Values produced by
// encoding/json into an `any` always map onto exactly one Kind, which lets
// reply inspection use exhaustive switches instead of ad-hoc type asserts.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

// String returns the JSON vocabulary name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "array"
	case KindMapping:
		return "object"
	default:
		return "invalid"
	}
}

// KindOf classifies a decoded JSON value.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case float64, float32, int, int64, int32, json.Number:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindSequence
	case map[string]any:
		return KindMapping
	default:
		return KindInvalid
	}
}

// AsMapping returns v as a JSON object when it is one.
func AsMapping(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// Stringify renders any JSON value as display text. Strings are returned
// verbatim; everything else is re-encoded compactly.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
