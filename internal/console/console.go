// Package console prints the agent's output and reads the user's answers.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Section title styles.
var (
	Yellow    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	Green     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	Red       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	Cyan      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	Magenta   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	LightBlue = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)

// Console writes styled sections to Out and reads lines from In.
type Console struct {
	Out io.Writer
	In  *bufio.Reader
	// TypingDelay slows section content down to a typewriter effect.
	TypingDelay time.Duration
	// Spinners disables the animated spinner when false.
	Spinners bool

	mu sync.Mutex
}

// New builds a console on stdin and stdout.
func New() *Console {
	return &Console{Out: os.Stdout, In: bufio.NewReader(os.Stdin), Spinners: true}
}

// NewWithIO builds a console over arbitrary streams, without spinners.
func NewWithIO(in io.Reader, out io.Writer) *Console {
	return &Console{Out: out, In: bufio.NewReader(in)}
}

// Typewriter prints a styled title followed by content.
func (c *Console) Typewriter(title string, style lipgloss.Style, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.Out, style.Render(title))
	if title != "" && content != "" && !strings.HasSuffix(title, " ") {
		fmt.Fprint(c.Out, " ")
	}
	if c.TypingDelay <= 0 {
		fmt.Fprintln(c.Out, content)
		return
	}
	for _, word := range strings.SplitAfter(content, " ") {
		fmt.Fprint(c.Out, word)
		time.Sleep(c.TypingDelay)
	}
	fmt.Fprintln(c.Out)
}

// Println prints plain text.
func (c *Console) Println(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.Out, text)
}

// ReadLine prints prompt and returns the next input line without its line
// ending. io.EOF is returned once input is exhausted.
func (c *Console) ReadLine(prompt string) (string, error) {
	c.mu.Lock()
	fmt.Fprint(c.Out, prompt)
	c.mu.Unlock()
	line, err := c.In.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// StartSpinner shows label with an animated spinner until the returned stop
// function is called. Without spinners only the label is printed.
func (c *Console) StartSpinner(label string) func() {
	if !c.Spinners {
		c.Println(label)
		return func() {}
	}
	s := NewSpinner(c.Out, label)
	s.Start()
	return s.Stop
}
