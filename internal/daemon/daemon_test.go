package daemon_test

import (
	"context"
	"testing"

	"overdub/internal/api"
	"overdub/internal/approvals"
	"overdub/internal/config"
	"overdub/internal/daemon"
	"overdub/internal/jobs"
	"overdub/internal/stage"
	"overdub/internal/testsupport"
	"overdub/internal/workflow"
)

type idleHandler struct{ name string }

func (h idleHandler) Prepare(context.Context, *jobs.Job) error { return nil }
func (h idleHandler) Execute(context.Context, *jobs.Job) error { return nil }
func (h idleHandler) HealthCheck(context.Context) stage.Health { return stage.Healthy(h.name) }

func idleStageSet() workflow.StageSet {
	return workflow.StageSet{
		Validator:          idleHandler{"validate"},
		TranslationCreator: idleHandler{"create-translation"},
		ReadinessWaiter:    idleHandler{"await-readiness"},
		IterationCreator:   idleHandler{"create-iteration"},
		ProcessingWaiter:   idleHandler{"process-iteration"},
		OutputCopier:       idleHandler{"copy-outputs"},
		Reviewer:           idleHandler{"run-review"},
		ApprovalGate:       idleHandler{"approval-gate"},
	}
}

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	manager := workflow.NewManager(cfg, store, nil, idleStageSet())
	service := api.NewService(store, approvals.NewHub())
	d, err := daemon.New(cfg, store, nil, manager, service)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	d := newDaemon(t, cfg)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)

	status := d.Status(context.Background())
	if !status.Running || !status.Workflow.Running {
		t.Fatalf("status = %+v, want running", status)
	}
	if status.LockFilePath == "" || status.JobDBPath == "" {
		t.Fatalf("paths missing from status: %+v", status)
	}

	d.Stop()
	if d.Status(context.Background()).Running {
		t.Fatal("daemon still reports running after Stop")
	}
}

func TestDaemonSecondStartFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	d := newDaemon(t, cfg)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
}

func TestDaemonLockExcludesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	first := newDaemon(t, cfg)
	second := newDaemon(t, cfg)

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(first.Stop)

	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected the lock to exclude a second daemon")
	}
}

func TestDaemonTestNotificationWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	d := newDaemon(t, cfg)

	sent, message, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if sent || message == "" {
		t.Fatalf("sent = %v message = %q, want skipped with explanation", sent, message)
	}
}
