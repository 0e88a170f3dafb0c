// Package approvals routes externally delivered approval decisions to the
// workflow runner waiting on them.
package approvals

import (
	"fmt"
	"sync"

	"overdub/internal/jobs"
)

// Hub hands decisions from the API surfaces to the job runner blocked at the
// approval gate. Each job has at most one waiter; a decision delivered with
// no waiter present is rejected so callers get immediate feedback.
type Hub struct {
	mu      sync.Mutex
	waiters map[int64]chan jobs.ApprovalDecision
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{
		waiters: make(map[int64]chan jobs.ApprovalDecision),
	}
}

// Register creates the decision channel for a job entering the approval gate.
// The returned cancel func must be called when the wait ends, whichever
// branch wins.
func (h *Hub) Register(jobID int64) (<-chan jobs.ApprovalDecision, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan jobs.ApprovalDecision, 1)
	h.waiters[jobID] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if current, ok := h.waiters[jobID]; ok && current == ch {
			delete(h.waiters, jobID)
		}
	}
}

// Resolve delivers a decision to the job's waiter. It fails when the job is
// not waiting at the approval gate.
func (h *Hub) Resolve(jobID int64, decision jobs.ApprovalDecision) error {
	h.mu.Lock()
	ch, ok := h.waiters[jobID]
	if ok {
		delete(h.waiters, jobID)
	}
	h.mu.Unlock()

	if !ok {
		return fmt.Errorf("job %d is not awaiting approval", jobID)
	}
	ch <- decision
	return nil
}

// Waiting reports whether a job currently has a registered waiter.
func (h *Hub) Waiting(jobID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.waiters[jobID]
	return ok
}
