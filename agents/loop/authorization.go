package loop

import (
	"strconv"
	"strings"
)

// Decision is the user's answer to a proposed command.
type Decision int

const (
	// DecisionFeedback sends the typed text back to the model instead of
	// running the command.
	DecisionFeedback Decision = iota
	DecisionApprove
	DecisionApproveN
	DecisionExit
	// DecisionInvalid is a malformed "y -N" answer; the user is asked again.
	DecisionInvalid
)

// Authorization is a parsed console answer.
type Authorization struct {
	Decision Decision
	// Count is the number of commands approved by "y -N".
	Count int
	// Feedback is the raw text for DecisionFeedback.
	Feedback string
}

// ParseAuthorization interprets one line typed at the authorisation prompt:
// "y" approves, "y -N" approves the next N commands, "n" exits and anything
// else is feedback for the model.
func ParseAuthorization(input string) Authorization {
	lower := strings.ToLower(input)
	switch {
	case strings.TrimRight(lower, " \t") == "y":
		return Authorization{Decision: DecisionApprove}
	case strings.HasPrefix(lower, "y -"):
		fields := strings.Split(lower, " ")
		if len(fields) < 2 {
			return Authorization{Decision: DecisionInvalid}
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return Authorization{Decision: DecisionInvalid}
		}
		if n < 0 {
			n = -n
		}
		return Authorization{Decision: DecisionApproveN, Count: n}
	case lower == "n":
		return Authorization{Decision: DecisionExit}
	default:
		return Authorization{Decision: DecisionFeedback, Feedback: input}
	}
}
