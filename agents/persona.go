package agents

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lexcodex/autoloop/agents/pattern"
	"github.com/lexcodex/autoloop/framework"
)

// PersonaFileName is the default persona file inside the workspace.
const PersonaFileName = "ai_settings.yaml"

// MaxGoals bounds the number of goals a persona carries.
const MaxGoals = 5

// Persona defaults.
const (
	DefaultName = "Entrepreneur-GPT"
	DefaultRole = "an AI designed to autonomously develop and run businesses with the sole goal of increasing your net worth."
)

// DefaultGoals returns the goals used when none are given.
func DefaultGoals() []string {
	return []string{
		"Increase net worth",
		"Grow Twitter Account",
		"Develop and manage multiple businesses autonomously",
	}
}

// Persona is the identity the model is asked to play.
type Persona struct {
	Name  string   `yaml:"ai_name"`
	Role  string   `yaml:"ai_role"`
	Goals []string `yaml:"ai_goals"`
}

// DefaultPersona returns the built-in persona.
func DefaultPersona() Persona {
	return Persona{Name: DefaultName, Role: DefaultRole, Goals: DefaultGoals()}
}

// IsZero reports whether no persona has been configured.
func (p Persona) IsZero() bool {
	return p.Name == "" && p.Role == "" && len(p.Goals) == 0
}

// WithDefaults fills blank fields and trims the goal list to MaxGoals.
func (p Persona) WithDefaults() Persona {
	if strings.TrimSpace(p.Name) == "" {
		p.Name = DefaultName
	}
	if strings.TrimSpace(p.Role) == "" {
		p.Role = DefaultRole
	}
	goals := make([]string, 0, len(p.Goals))
	for _, goal := range p.Goals {
		if goal = strings.TrimSpace(goal); goal != "" {
			goals = append(goals, goal)
		}
	}
	if len(goals) > MaxGoals {
		goals = goals[:MaxGoals]
	}
	if len(goals) == 0 {
		goals = DefaultGoals()
	}
	p.Goals = goals
	return p
}

// LoadPersona reads a persona file. A missing file yields a zero persona.
func LoadPersona(path string) (Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Persona{}, nil
		}
		return Persona{}, err
	}
	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Persona{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}

// Save writes the persona to path.
func (p Persona) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

var promptConstraints = []string{
	"~4000 word limit for short term memory. Your short term memory is short, so immediately save important information to files.",
	"If you are unsure how you previously did something or want to recall past events, thinking about similar events will help you remember.",
	"No user assistance",
	`Exclusively use the commands listed in double quotes e.g. "command name"`,
}

var promptResources = []string{
	"Internet access for searches and information gathering.",
	"Long Term memory management.",
	"Sub-agents for delegation of simple tasks.",
	"File output.",
}

var promptEvaluation = []string{
	"Continuously review and analyze your actions to ensure you are performing to the best of your abilities.",
	"Constructively self-criticize your big-picture behavior constantly.",
	"Reflect on past decisions and strategies to refine your approach.",
	"Every command has a cost, so be smart and efficient. Aim to complete tasks in the least number of steps.",
}

// FullPrompt builds the system prompt sent when the session starts.
func (p Persona) FullPrompt(commands []framework.Command) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s\n", p.Name, p.Role)
	b.WriteString("Your decisions must always be made independently without seeking user assistance. ")
	b.WriteString("Play to your strengths as an LLM and pursue simple strategies with no legal complications.\n\n")
	b.WriteString("GOALS:\n\n")
	writeNumbered(&b, p.Goals)
	b.WriteString("\nCONSTRAINTS:\n\n")
	writeNumbered(&b, promptConstraints)
	b.WriteString("\nCOMMANDS:\n\n")
	b.WriteString(framework.RenderCommandsToPrompt(commands))
	b.WriteString("\n\nRESOURCES:\n\n")
	writeNumbered(&b, promptResources)
	b.WriteString("\nPERFORMANCE EVALUATION:\n\n")
	writeNumbered(&b, promptEvaluation)
	b.WriteString("\nYou should only respond in JSON format as described below\n\n")
	b.WriteString("RESPONSE JSON FORMAT:\n")
	b.WriteString(pattern.JSONSchema)
	b.WriteString("\n\nEnsure the response can be parsed by a strict JSON parser")
	return b.String()
}

func writeNumbered(b *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
}
