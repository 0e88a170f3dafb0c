package agents

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Agent is a named chat identity with a fixed system prompt. Agents are
// created once per process and shared across jobs; conversations happen on
// per-call Threads.
type Agent struct {
	name         string
	systemPrompt string
	client       ChatClient
}

// Name returns the agent's identity.
func (a *Agent) Name() string {
	return a.name
}

// NewThread opens a fresh conversation seeded with the agent's system prompt.
// Each thread carries a unique identifier so review results can be traced
// back to the conversation that produced them.
func (a *Agent) NewThread() *Thread {
	return &Thread{
		agent: a,
		id:    uuid.NewString(),
		messages: []Message{
			{Role: "system", Content: a.systemPrompt},
		},
	}
}

// Thread is a single conversation with an agent. It is not safe for
// concurrent use; each specialist evaluation owns its own thread.
type Thread struct {
	agent    *Agent
	id       string
	messages []Message
}

// ID returns the thread's unique identifier.
func (t *Thread) ID() string {
	if t == nil {
		return ""
	}
	return t.id
}

// Send appends a user message, requests a completion over the whole history,
// records the assistant's reply, and returns it.
func (t *Thread) Send(ctx context.Context, content string) (string, error) {
	if t == nil || t.agent == nil {
		return "", errors.New("thread not initialized")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errors.New("message content required")
	}
	t.messages = append(t.messages, Message{Role: "user", Content: content})
	reply, err := t.agent.client.Complete(ctx, t.messages)
	if err != nil {
		return "", err
	}
	t.messages = append(t.messages, Message{Role: "assistant", Content: reply})
	return reply, nil
}

// Len returns the number of messages exchanged, including the system prompt.
func (t *Thread) Len() int {
	return len(t.messages)
}

// Pool creates agents on first use and returns the same instance afterwards.
// Creation is guarded so concurrent specialists never race to build the same
// agent twice.
type Pool struct {
	client ChatClient

	mu     sync.Mutex
	agents map[string]*Agent
}

// NewPool constructs an agent pool over the given chat backend.
func NewPool(client ChatClient) *Pool {
	return &Pool{
		client: client,
		agents: make(map[string]*Agent),
	}
}

// Ensure returns the named agent, creating it with the given system prompt if
// it does not exist yet. The prompt of an existing agent is not replaced.
func (p *Pool) Ensure(name, systemPrompt string) (*Agent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("agent name required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, errors.New("agent system prompt required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if agent, ok := p.agents[name]; ok {
		return agent, nil
	}
	agent := &Agent{
		name:         name,
		systemPrompt: systemPrompt,
		client:       p.client,
	}
	p.agents[name] = agent
	return agent, nil
}
