package console

import (
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type spinnerModel struct {
	spinner spinner.Model
	label   string
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case stopMsg:
		m.done = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.label
}

type stopMsg struct{}

// Spinner animates a label on a writer while a blocking call runs.
type Spinner struct {
	program *tea.Program
	done    chan struct{}
	once    sync.Once
	started bool
}

// NewSpinner builds a spinner writing to out.
func NewSpinner(out io.Writer, label string) *Spinner {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	model := spinnerModel{spinner: spin, label: label}
	return &Spinner{
		program: tea.NewProgram(model,
			tea.WithOutput(out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}
}

// Start runs the spinner in the background.
func (s *Spinner) Start() {
	s.started = true
	go func() {
		defer close(s.done)
		_, _ = s.program.Run()
	}()
}

// Stop ends the animation and waits for the program to exit. It is safe to
// call more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		if !s.started {
			return
		}
		s.program.Send(stopMsg{})
		<-s.done
	})
}
