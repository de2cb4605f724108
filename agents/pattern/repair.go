package pattern

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lexcodex/autoloop/framework"
	"github.com/lexcodex/autoloop/internal/logger"
)

// ErrInvalidJSON reports a reply that no local strategy could decode while
// AI repair was unavailable.
var ErrInvalidJSON = errors.New("invalid json")

// Repair strategies recorded on a Repaired value.
const (
	StrategyDirect          = "direct"
	StrategyHeuristic       = "heuristic"
	StrategyExtract         = "extract"
	StrategyExtractBalanced = "extract_balanced"
	StrategyAI              = "ai"
	StrategyOpaque          = "opaque"
)

// Repaired is the outcome of a repair run.
type Repaired struct {
	// Value is the decoded JSON value.
	Value any
	// Text is the exact text that decoded into Value.
	Text string
	// Strategy names the step that succeeded.
	Strategy string
	// DoubleEncoded is set when Value came from a JSON string holding JSON.
	DoubleEncoded bool
	// Opaque marks a reply that could not be repaired; Value is the original
	// string.
	Opaque bool
}

// Repairer turns model output into decoded JSON, escalating from a strict
// decode through local heuristics to a one-shot AI rewrite.
type Repairer struct {
	Opener framework.Opener
	TryAI  bool
	Logger *log.Logger
}

// NewRepairer returns a repairer with AI repair enabled when open is set.
func NewRepairer(open framework.Opener) *Repairer {
	return &Repairer{Opener: open, TryAI: open != nil}
}

type repairRun struct {
	aiUsed bool
}

// Repair decodes raw. Failures are only returned when AI repair is disabled;
// with AI enabled an unrepairable reply comes back Opaque.
func (r *Repairer) Repair(ctx context.Context, raw string) (Repaired, error) {
	return r.repair(ctx, raw, 0, &repairRun{})
}

func (r *Repairer) repair(ctx context.Context, raw string, depth int, run *repairRun) (Repaired, error) {
	res, err := r.local(raw)
	if err != nil {
		res, err = r.escalate(ctx, raw, err, run)
		if err != nil || res.Opaque {
			return res, err
		}
	}
	inner, ok := res.Value.(string)
	if !ok || depth > 0 || !looksEncoded(inner) {
		return res, nil
	}
	r.logger().Debug("decoding double-encoded reply", "text", inner)
	nested, err := r.repair(ctx, inner, depth+1, run)
	if err != nil {
		return Repaired{}, err
	}
	if nested.Opaque {
		return Repaired{Value: raw, Text: raw, Strategy: StrategyOpaque, Opaque: true}, nil
	}
	nested.DoubleEncoded = true
	return nested, nil
}

func (r *Repairer) escalate(ctx context.Context, raw string, cause error, run *repairRun) (Repaired, error) {
	if !r.TryAI || r.Opener == nil {
		return Repaired{}, fmt.Errorf("%w: %w", ErrInvalidJSON, cause)
	}
	opaque := Repaired{Value: raw, Text: raw, Strategy: StrategyOpaque, Opaque: true}
	if run.aiUsed {
		return opaque, nil
	}
	run.aiUsed = true
	if !strings.HasPrefix(raw, "`") {
		r.logger().Debug("requesting AI repair", "text", "```json\n"+raw+"\n```")
	} else {
		r.logger().Debug("requesting AI repair", "text", raw)
	}
	fixed, err := FixJSONWithAI(ctx, r.Opener, raw)
	if err != nil {
		r.logger().Warn("AI repair failed", "error", err)
		return opaque, nil
	}
	res, err := r.local(fixed)
	if err != nil {
		r.logger().Warn("AI repair returned invalid JSON", "error", err, "text", fixed)
		return opaque, nil
	}
	res.Strategy = StrategyAI
	r.logger().Debug("AI repair succeeded", "text", res.Text)
	return res, nil
}

// local runs every strategy that needs no model. The returned error is the
// strict decode error of the cleaned input.
func (r *Repairer) local(raw string) (Repaired, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, "\t", ""))
	value, firstErr := decodeStrict(cleaned)
	if firstErr == nil {
		return Repaired{Value: value, Text: cleaned, Strategy: StrategyDirect}, nil
	}
	r.logger().Debug("strict decode failed", "error", firstErr, "text", cleaned)

	if corrected := CorrectJSON(cleaned); corrected != cleaned {
		if value, err := decodeStrict(corrected); err == nil {
			r.logger().Debug("heuristic correction succeeded", "strategy", StrategyHeuristic, "original", raw, "text", corrected)
			return Repaired{Value: value, Text: corrected, Strategy: StrategyHeuristic}, nil
		}
	}

	extractors := []struct {
		strategy string
		extract  func(string) (string, error)
	}{
		{StrategyExtract, ExtractJSON},
		{StrategyExtractBalanced, ExtractBalancedJSON},
	}
	for _, ex := range extractors {
		candidate, err := ex.extract(cleaned)
		if err != nil {
			continue
		}
		for _, text := range []string{candidate, CorrectJSON(candidate)} {
			if value, err := decodeStrict(text); err == nil {
				r.logger().Debug("bracket extraction succeeded", "strategy", ex.strategy, "original", raw, "text", text)
				return Repaired{Value: value, Text: text, Strategy: ex.strategy}, nil
			}
		}
	}

	// A truncated object after leading prose has no closing brace to extract.
	if start := strings.IndexByte(cleaned, '{'); start > 0 {
		text := CorrectJSON(cleaned[start:])
		if value, err := decodeStrict(text); err == nil {
			r.logger().Debug("truncated object recovered", "strategy", StrategyExtract, "original", raw, "text", text)
			return Repaired{Value: value, Text: text, Strategy: StrategyExtract}, nil
		}
	}
	return Repaired{}, firstErr
}

func (r *Repairer) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logger.Logger
}

func decodeStrict(text string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, err
	}
	return value, nil
}

// looksEncoded reports whether a decoded string plausibly holds JSON itself.
func looksEncoded(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") || strings.HasPrefix(s, `"`)
}
