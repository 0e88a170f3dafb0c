package steps

import (
	"context"
	"testing"
	"time"

	"overdub/internal/approvals"
	"overdub/internal/jobs"
	"overdub/internal/logging"
	"overdub/internal/testsupport"
)

func fastApprovalGate(hub *approvals.Hub, timeout time.Duration) *ApprovalGate {
	return &ApprovalGate{hub: hub, timeout: timeout, logger: logging.NewNop()}
}

func runGate(t *testing.T, gate *ApprovalGate, job *jobs.Job) chan error {
	t.Helper()
	if err := gate.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	done := make(chan error, 1)
	go func() {
		done <- gate.Execute(context.Background(), job)
	}()
	return done
}

func waitForWaiter(t *testing.T, hub *approvals.Hub, jobID int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Waiting(jobID) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("job %d never registered an approval waiter", jobID)
}

func TestApprovalGateAppliesHumanDecision(t *testing.T) {
	hub := approvals.NewHub()
	gate := fastApprovalGate(hub, time.Hour)
	job := urlJob()

	done := runGate(t, gate, job)
	waitForWaiter(t, hub, job.ID)

	decision := jobs.ApprovalDecision{Approved: true, Reviewer: "qa", Comments: "ship it"}
	if err := hub.Resolve(job.ID, decision); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if job.Status != jobs.StatusApproved {
		t.Fatalf("status = %s, want approved", job.Status)
	}
	stored, err := job.Decision()
	if err != nil {
		t.Fatalf("Decision: %v", err)
	}
	if stored == nil || !stored.Approved || stored.Reviewer != "qa" {
		t.Fatalf("stored decision = %+v", stored)
	}
	if stored.DecidedAt.IsZero() {
		t.Fatal("decision timestamp not recorded")
	}
}

func TestApprovalGateRejection(t *testing.T) {
	hub := approvals.NewHub()
	gate := fastApprovalGate(hub, time.Hour)
	job := urlJob()

	done := runGate(t, gate, job)
	waitForWaiter(t, hub, job.ID)

	if err := hub.Resolve(job.ID, jobs.ApprovalDecision{Approved: false, Reviewer: "qa", Reason: "tone drift"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if job.Status != jobs.StatusRejected {
		t.Fatalf("status = %s, want rejected", job.Status)
	}
}

func TestApprovalGateTimesOutToRejection(t *testing.T) {
	hub := approvals.NewHub()
	gate := fastApprovalGate(hub, 30*time.Millisecond)
	job := urlJob()

	done := runGate(t, gate, job)
	if err := <-done; err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if job.Status != jobs.StatusRejected {
		t.Fatalf("status = %s, want rejected", job.Status)
	}
	decision, err := job.Decision()
	if err != nil {
		t.Fatalf("Decision: %v", err)
	}
	if decision.Reviewer != "system" || decision.Reason != "approval timed out" {
		t.Fatalf("timeout decision = %+v", decision)
	}
	if hub.Waiting(job.ID) {
		t.Fatal("timed out gate left a registered waiter behind")
	}
}

func TestApprovalGateKeepsPersistedDeadline(t *testing.T) {
	gate := fastApprovalGate(approvals.NewHub(), time.Hour)
	job := urlJob()

	if err := gate.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	first := *job.ApprovalDeadline
	time.Sleep(5 * time.Millisecond)
	if err := gate.Prepare(context.Background(), job); err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
	if !job.ApprovalDeadline.Equal(first) {
		t.Fatalf("deadline moved from %s to %s on resume", first, job.ApprovalDeadline)
	}
}

func TestApprovalGateStopsOnShutdown(t *testing.T) {
	hub := approvals.NewHub()
	gate := fastApprovalGate(hub, time.Hour)
	job := urlJob()
	if err := gate.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- gate.Execute(ctx, job)
	}()
	waitForWaiter(t, hub, job.ID)
	cancel()

	if err := <-done; err == nil {
		t.Fatal("expected a context error on shutdown")
	}
	if job.Status.IsTerminal() {
		t.Fatalf("shutdown must not decide the job, status = %s", job.Status)
	}
}

func TestNewApprovalGateUsesConfiguredWindow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.ApprovalTimeoutHours = 12
	gate := NewApprovalGate(cfg, approvals.NewHub(), nil, nil)

	job := urlJob()
	if err := gate.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	window := time.Until(*job.ApprovalDeadline)
	if window > 12*time.Hour || window < 11*time.Hour {
		t.Fatalf("approval window = %s, want about 12h", window)
	}
}
