// Package loop runs the plan, act and observe cycle: it asks the model for the
// next command, repairs and interprets the reply, asks the user for
// permission, runs the command and feeds the result back.
package loop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lexcodex/autoloop/agents/pattern"
	"github.com/lexcodex/autoloop/framework"
	"github.com/lexcodex/autoloop/internal/console"
	"github.com/lexcodex/autoloop/internal/logger"
	"github.com/lexcodex/autoloop/persistence"
)

// ErrConnectionFailed reports that the model's first reply was unusable.
var ErrConnectionFailed = errors.New("AI CONNECTION FAILED")

// Fixed inputs sent to the model.
const (
	InitialInput     = "Determine which command in COMMANDS list to use first, and respond using the format specified by RESPONSE JSON FORMAT."
	NextCommandInput = "GENERATE NEXT COMMAND JSON"
	// TaskCompleteCommand ends the run once its result is recorded.
	TaskCompleteCommand = "task_complete"
)

const (
	recentTurns      = 5
	relevantMemories = 10
)

// Console is the terminal the loop talks to.
type Console interface {
	Typewriter(title string, style lipgloss.Style, content string)
	Println(text string)
	ReadLine(prompt string) (string, error)
	StartSpinner(label string) func()
}

// Config tunes a run.
type Config struct {
	// Continuous runs commands without asking for authorisation.
	Continuous bool
	// ContinuousLimit stops a continuous run after this many commands; zero
	// means no limit.
	ContinuousLimit int
}

// Agent owns one conversation with the model. Every collaborator is passed in
// explicitly; the agent keeps no package level state.
type Agent struct {
	Name     string
	Prompt   string
	Opener   framework.Opener
	Memory   framework.MemoryStore
	Registry *framework.CommandRegistry
	Repairer *pattern.Repairer
	Console  Console
	Config   Config
	Logger   *log.Logger

	// Transcript optionally records every turn under SessionID.
	Transcript persistence.TranscriptStore
	SessionID  string

	history []framework.Turn
}

// History returns a copy of the conversation so far.
func (a *Agent) History() []framework.Turn {
	return append([]framework.Turn(nil), a.history...)
}

// Run drives the conversation until the user exits, the model completes its
// task, the continuous limit is hit or ctx is cancelled. The chat session is
// closed exactly once before Run returns.
func (a *Agent) Run(ctx context.Context) (err error) {
	if a.Opener == nil {
		return framework.ErrNoOpener
	}
	if a.Memory == nil {
		a.Memory = persistence.NoMemory{}
	}
	session, err := a.Opener(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	stop := a.Console.StartSpinner("Connecting to AI assistant...")
	reply, err := session.Ask(ctx, a.Prompt)
	stop()
	if err != nil {
		return err
	}
	directive := pattern.ParseReply(ctx, a.Repairer, reply)
	if directive.IsError() {
		a.Console.Typewriter("AI CONNECTION FAILED: ", console.Red, directive.Message)
		return fmt.Errorf("%w: %s", ErrConnectionFailed, directive.Message)
	}
	a.Console.Typewriter("AI CONNECTED: ", console.Yellow, pattern.ThoughtsFrom(directive.Thoughts).Text)

	userInput := InitialInput
	budget := 0
	executed := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		question, err := a.question(ctx, userInput)
		if err != nil {
			return err
		}
		stop := a.Console.StartSpinner("Thinking... ")
		reply, err := session.Ask(ctx, question)
		stop()
		if err != nil {
			return fmt.Errorf("chat: %w", err)
		}
		a.record(ctx,
			framework.NewTurn(framework.RoleUser, userInput),
			framework.NewTurn(framework.RoleAssistant, reply))

		directive := pattern.ParseReply(ctx, a.Repairer, reply)
		if directive.Thoughts != nil {
			a.printThoughts(directive.Thoughts)
		}

		feedback := false
		if !a.Config.Continuous && budget == 0 {
			a.printNextAction(directive)
			a.Console.Println(fmt.Sprintf("Enter 'y' to authorise command, 'y -N' to run N continuous commands, 'n' to exit program, or enter feedback for %s...", a.Name))
			auth, err := a.authorize()
			if err != nil {
				if errors.Is(err, io.EOF) {
					a.Console.Println("Exiting...")
					return nil
				}
				return err
			}
			switch auth.Decision {
			case DecisionExit:
				a.Console.Println("Exiting...")
				return nil
			case DecisionFeedback:
				userInput = auth.Feedback
				feedback = true
			case DecisionApproveN:
				budget = auth.Count
				userInput = NextCommandInput
			default:
				userInput = NextCommandInput
			}
			if !feedback {
				a.Console.Typewriter("-=-=-=-=-=-=-= COMMAND AUTHORISED BY USER -=-=-=-=-=-=-=", console.Magenta, "")
			}
		} else {
			a.printNextAction(directive)
			userInput = NextCommandInput
		}

		var result string
		switch {
		case feedback, !directive.IsError() && directive.Name == framework.HumanFeedbackCommand:
			result = "Human feedback received: " + userInput
		case directive.IsError():
			result = "Error generated: " + directive.Message
		default:
			out := framework.Dispatch(ctx, a.Registry, directive.Name, directive.Args)
			result = fmt.Sprintf("Command %q returned: %s", directive.Name, out)
			if budget > 0 {
				budget--
			}
		}

		memory := fmt.Sprintf("Assistant Reply: %s \nCommand Result: %s \nHuman Feedback: %s ", reply, result, userInput)
		if err := a.Memory.Add(ctx, memory); err != nil {
			return fmt.Errorf("memory: %w", err)
		}
		a.record(ctx, framework.NewTurn(framework.RoleSystem, result))
		a.Console.Typewriter("SYSTEM: ", console.Yellow, result)

		if !feedback && !directive.IsError() && directive.Name == TaskCompleteCommand {
			return nil
		}
		if a.Config.Continuous && a.Config.ContinuousLimit > 0 {
			executed++
			if executed >= a.Config.ContinuousLimit {
				a.Console.Typewriter("Continuous Limit Reached: ", console.Yellow, fmt.Sprintf("%d", a.Config.ContinuousLimit))
				return nil
			}
		}
	}
}

// question builds what is sent to the model for userInput. The first question
// is the input itself; later ones repeat the last result and the prompt and
// are preceded by related memories.
func (a *Agent) question(ctx context.Context, userInput string) (string, error) {
	if len(a.history) == 0 {
		return userInput, nil
	}
	start := len(a.history) - recentTurns
	if start < 0 {
		start = 0
	}
	memories, err := a.Memory.GetRelevant(ctx, framework.RenderTurns(a.history[start:]), relevantMemories)
	if err != nil {
		return "", fmt.Errorf("memory: %w", err)
	}
	var b strings.Builder
	if len(memories) > 0 {
		b.WriteString("This reminds you of these events from your past:\n")
		b.WriteString(strings.Join(memories, "\n\n"))
		b.WriteString("\n\n")
	}
	b.WriteString(a.history[len(a.history)-1].Content)
	b.WriteString("\n\n")
	b.WriteString(a.Prompt)
	b.WriteString("\n\nBased on the above information, ")
	b.WriteString(userInput)
	return b.String(), nil
}

func (a *Agent) authorize() (Authorization, error) {
	for {
		line, err := a.Console.ReadLine("Input: ")
		if err != nil {
			return Authorization{}, err
		}
		auth := ParseAuthorization(line)
		if auth.Decision == DecisionInvalid {
			a.Console.Println("Invalid input format. Please enter 'y -n' where n is the number of continuous tasks.")
			continue
		}
		return auth, nil
	}
}

func (a *Agent) record(ctx context.Context, turns ...framework.Turn) {
	a.history = append(a.history, turns...)
	if a.Transcript == nil || a.SessionID == "" {
		return
	}
	if err := a.Transcript.Append(ctx, a.SessionID, turns...); err != nil {
		a.logger().Warn("transcript append failed", "error", err)
	}
}

func (a *Agent) printThoughts(raw map[string]any) {
	th := pattern.ThoughtsFrom(raw)
	a.Console.Typewriter(strings.ToUpper(a.Name)+" THOUGHTS:", console.Yellow, th.Text)
	a.Console.Typewriter("REASONING:", console.Yellow, th.Reasoning)
	if lines := pattern.PlanLines(th.Plan); len(lines) > 0 {
		a.Console.Typewriter("PLAN:", console.Yellow, "")
		for _, line := range lines {
			a.Console.Typewriter("- ", console.Green, line)
		}
	}
	a.Console.Typewriter("CRITICISM:", console.Yellow, th.Criticism)
}

func (a *Agent) printNextAction(d pattern.Directive) {
	args := framework.Stringify(d.Args)
	if d.IsError() {
		args = d.Message
	}
	a.Console.Typewriter("NEXT ACTION: ", console.Cyan, fmt.Sprintf("COMMAND = %s  ARGUMENTS = %s", d.Command(), args))
	a.logger().Debug("next action", "command", d.Command(), "error", string(d.ErrorKind))
}

func (a *Agent) logger() *log.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return logger.Logger
}
