package agents

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

type scriptedClient struct {
	mu      sync.Mutex
	calls   [][]Message
	replies []string
}

func (s *scriptedClient) Complete(_ context.Context, messages []Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]Message, len(messages))
	copy(copied, messages)
	s.calls = append(s.calls, copied)
	if len(s.replies) == 0 {
		return `{}`, nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func (s *scriptedClient) HealthCheck(context.Context) error { return nil }

func TestThreadAccumulatesHistory(t *testing.T) {
	client := &scriptedClient{replies: []string{`{"tool":"GetJobInfo"}`, `{"score":85}`}}
	pool := NewPool(client)
	agent, err := pool.Ensure("translation-reviewer", "You review translation quality.")
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	thread := agent.NewThread()
	if _, err := thread.Send(context.Background(), "Evaluate job 1."); err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	if _, err := thread.Send(context.Background(), `{"result":"job info here"}`); err != nil {
		t.Fatalf("second send failed: %v", err)
	}

	if thread.Len() != 5 {
		t.Fatalf("expected 5 messages (system + 2 exchanges), got %d", thread.Len())
	}
	last := client.calls[len(client.calls)-1]
	if last[0].Role != "system" || last[0].Content != "You review translation quality." {
		t.Fatalf("system prompt not preserved: %#v", last[0])
	}
	if last[2].Role != "assistant" || last[2].Content != `{"tool":"GetJobInfo"}` {
		t.Fatalf("assistant turn missing from history: %#v", last)
	}
}

func TestThreadsHaveDistinctIDs(t *testing.T) {
	pool := NewPool(&scriptedClient{})
	agent, err := pool.Ensure("reviewer", "You review.")
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	first := agent.NewThread()
	second := agent.NewThread()
	if first.ID() == "" || second.ID() == "" {
		t.Fatal("threads must carry identifiers")
	}
	if first.ID() == second.ID() {
		t.Fatalf("thread ids must be unique, both %q", first.ID())
	}
	var nilThread *Thread
	if nilThread.ID() != "" {
		t.Fatal("nil thread must report an empty id")
	}
}

func TestPoolSingleFlightCreation(t *testing.T) {
	pool := NewPool(&scriptedClient{})

	var wg sync.WaitGroup
	results := make([]*Agent, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			agent, err := pool.Ensure("summarizer", "You synthesize reviews.")
			if err != nil {
				t.Errorf("Ensure failed: %v", err)
				return
			}
			results[i] = agent
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("expected a single shared agent instance")
		}
	}
}

func TestPoolRejectsEmptyIdentity(t *testing.T) {
	pool := NewPool(&scriptedClient{})
	if _, err := pool.Ensure("", "prompt"); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := pool.Ensure("name", " "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestThreadRejectsEmptyMessage(t *testing.T) {
	pool := NewPool(&scriptedClient{})
	agent, err := pool.Ensure("reviewer", "prompt")
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if _, err := agent.NewThread().Send(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestDistinctAgentsKeepDistinctPrompts(t *testing.T) {
	client := &scriptedClient{}
	pool := NewPool(client)
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("specialist-%d", i)
		if _, err := pool.Ensure(name, "prompt for "+name); err != nil {
			t.Fatalf("Ensure %s failed: %v", name, err)
		}
	}
	a, _ := pool.Ensure("specialist-1", "ignored replacement prompt")
	thread := a.NewThread()
	if _, err := thread.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if got := client.calls[0][0].Content; got != "prompt for specialist-1" {
		t.Fatalf("existing prompt should not be replaced, got %q", got)
	}
}
