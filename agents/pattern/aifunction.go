package pattern

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexcodex/autoloop/framework"
)

// JSONSchema is the reply shape the model is asked to produce. It is embedded
// in the system prompt and handed to the repair function.
const JSONSchema = `{
    "command": {
        "name": "command name",
        "args": {
            "arg name": "value"
        }
    },
    "thoughts": {
        "text": "thought",
        "reasoning": "reasoning",
        "plan": "- short bulleted\n- list that conveys\n- long-term plan",
        "criticism": "constructive self-criticism",
        "speak": "thoughts summary to say to user"
    }
}`

const (
	fixJSONFunction    = "def fix_json(json_str: str, schema:str=None) -> str:"
	fixJSONDescription = "Fixes the provided JSON string to make it parsable and fully compliant with the provided schema.\n If an object or field specified in the schema isn't contained within the correct JSON, it is omitted.\n This function is brilliant at guessing when the format is incorrect."
)

// CallAIFunction asks a fresh session to impersonate the described function
// and returns whatever it answers as the return value. The main conversation
// is not touched.
func CallAIFunction(ctx context.Context, open framework.Opener, function string, args []string, description string) (string, error) {
	system := fmt.Sprintf("You are now the following python function: ```# %s\n%s```\n\nOnly respond with your `return` value.", description, function)
	turns := []framework.Turn{
		framework.NewTurn(framework.RoleSystem, system),
		framework.NewTurn(framework.RoleUser, strings.Join(args, ", ")),
	}
	return framework.AskMessages(ctx, open, turns)
}

// FixJSONWithAI asks the model to rewrite broken JSON so it fits JSONSchema.
func FixJSONWithAI(ctx context.Context, open framework.Opener, broken string) (string, error) {
	args := []string{"'''" + broken + "'''", "'''" + JSONSchema + "'''"}
	reply, err := CallAIFunction(ctx, open, fixJSONFunction, args, fixJSONDescription)
	if err != nil {
		return "", fmt.Errorf("fix_json: %w", err)
	}
	return reply, nil
}
