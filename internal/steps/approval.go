package steps

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"overdub/internal/approvals"
	"overdub/internal/config"
	"overdub/internal/jobs"
	"overdub/internal/logging"
	"overdub/internal/notifications"
	"overdub/internal/stage"
)

const defaultApprovalTimeout = 72 * time.Hour

// ApprovalGate holds a reviewed job until a human decides or the approval
// window closes. The deadline is persisted on first entry so a daemon
// restart mid-wait does not extend the window.
type ApprovalGate struct {
	hub      *approvals.Hub
	notifier notifications.Service
	timeout  time.Duration
	logger   *slog.Logger
}

func NewApprovalGate(cfg *config.Config, hub *approvals.Hub, notifier notifications.Service, logger *slog.Logger) *ApprovalGate {
	timeout := defaultApprovalTimeout
	if cfg.Workflow.ApprovalTimeoutHours > 0 {
		timeout = time.Duration(cfg.Workflow.ApprovalTimeoutHours) * time.Hour
	}
	return &ApprovalGate{
		hub:      hub,
		notifier: notifier,
		timeout:  timeout,
		logger:   logging.NewComponentLogger(logger, "approval-gate"),
	}
}

func (g *ApprovalGate) Prepare(ctx context.Context, job *jobs.Job) error {
	if job.ApprovalDeadline == nil {
		deadline := time.Now().UTC().Add(g.timeout)
		job.ApprovalDeadline = &deadline
	}
	job.StatusMessage = fmt.Sprintf("Awaiting approval until %s", job.ApprovalDeadline.Format(time.RFC3339))
	return nil
}

func (g *ApprovalGate) Execute(ctx context.Context, job *jobs.Job) error {
	decisions, cancelWait := g.hub.Register(job.ID)
	defer cancelWait()

	if g.notifier != nil {
		if err := g.notifier.NotifyApprovalPending(ctx, job, *job.ApprovalDeadline); err != nil {
			g.logger.Warn("approval notification not delivered",
				logging.Int64(logging.FieldJobID, job.ID),
				logging.Error(err),
			)
		}
	}

	timer := time.NewTimer(time.Until(*job.ApprovalDeadline))
	defer timer.Stop()

	var decision jobs.ApprovalDecision
	select {
	case <-ctx.Done():
		return ctx.Err()
	case decision = <-decisions:
	case <-timer.C:
		decision = jobs.ApprovalDecision{
			Approved:  false,
			Reviewer:  "system",
			Reason:    "approval timed out",
			DecidedAt: time.Now().UTC(),
		}
	}

	return g.applyDecision(ctx, job, decision)
}

func (g *ApprovalGate) applyDecision(ctx context.Context, job *jobs.Job, decision jobs.ApprovalDecision) error {
	if decision.DecidedAt.IsZero() {
		decision.DecidedAt = time.Now().UTC()
	}
	if err := job.SetDecision(decision); err != nil {
		return fmt.Errorf("record approval decision: %w", err)
	}

	if decision.Approved {
		job.Status = jobs.StatusApproved
		job.StatusMessage = fmt.Sprintf("Approved by %s", decision.Reviewer)
	} else {
		job.Status = jobs.StatusRejected
		job.StatusMessage = fmt.Sprintf("Rejected by %s", decision.Reviewer)
	}
	g.logger.Info("approval decided",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.Bool("approved", decision.Approved),
		logging.String("reviewer", decision.Reviewer),
	)

	if g.notifier != nil {
		var err error
		if decision.Approved {
			err = g.notifier.NotifyApproved(ctx, job, decision.Reviewer)
		} else {
			err = g.notifier.NotifyRejected(ctx, job, decision.Reviewer, decision.Reason)
		}
		if err != nil {
			g.logger.Warn("decision notification not delivered",
				logging.Int64(logging.FieldJobID, job.ID),
				logging.Error(err),
			)
		}
	}
	return nil
}

func (g *ApprovalGate) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("approval-gate")
}
