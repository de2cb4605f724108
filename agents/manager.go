package agents

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/lexcodex/autoloop/framework"
)

// ErrAgentNotFound reports an unknown sub-agent key.
var ErrAgentNotFound = errors.New("agent not found")

// AgentInfo describes a running sub-agent.
type AgentInfo struct {
	Key  string `json:"key"`
	Task string `json:"task"`
}

type subAgent struct {
	session framework.ChatBackend
	task    string
	history []framework.Turn
}

// Manager runs helper agents, each on its own chat session.
type Manager struct {
	open   framework.Opener
	mu     sync.Mutex
	agents map[string]*subAgent
	order  []string
}

// NewManager builds a manager that opens sessions through open.
func NewManager(open framework.Opener) *Manager {
	return &Manager{open: open, agents: make(map[string]*subAgent)}
}

// Create starts an agent for task, sends it prompt and returns its key and
// first reply.
func (m *Manager) Create(ctx context.Context, task, prompt string) (string, string, error) {
	if m.open == nil {
		return "", "", framework.ErrNoOpener
	}
	session, err := m.open(ctx)
	if err != nil {
		return "", "", err
	}
	reply, err := session.Ask(ctx, prompt)
	if err != nil {
		_ = session.Close()
		return "", "", err
	}
	key := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents[key] = &subAgent{
		session: session,
		task:    task,
		history: []framework.Turn{
			framework.NewTurn(framework.RoleUser, prompt),
			framework.NewTurn(framework.RoleAssistant, reply),
		},
	}
	m.order = append(m.order, key)
	return key, reply, nil
}

// Message sends message to the agent with key.
func (m *Manager) Message(ctx context.Context, key, message string) (string, error) {
	m.mu.Lock()
	agent, ok := m.agents[key]
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrAgentNotFound, key)
	}
	reply, err := agent.session.Ask(ctx, message)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	agent.history = append(agent.history,
		framework.NewTurn(framework.RoleUser, message),
		framework.NewTurn(framework.RoleAssistant, reply))
	m.mu.Unlock()
	return reply, nil
}

// List returns the running agents in creation order.
func (m *Manager) List() []AgentInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AgentInfo, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, AgentInfo{Key: key, Task: m.agents[key].task})
	}
	return out
}

// History returns a copy of an agent's conversation.
func (m *Manager) History(key string) ([]framework.Turn, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agent, ok := m.agents[key]
	if !ok {
		return nil, false
	}
	return append([]framework.Turn(nil), agent.history...), true
}

// Delete closes and forgets an agent. It reports false for unknown keys.
func (m *Manager) Delete(key string) bool {
	m.mu.Lock()
	agent, ok := m.agents[key]
	if ok {
		delete(m.agents, key)
		for i, k := range m.order {
			if k == key {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	_ = agent.session.Close()
	return true
}

// CloseAll deletes every agent.
func (m *Manager) CloseAll() {
	for _, info := range m.List() {
		m.Delete(info.Key)
	}
}
