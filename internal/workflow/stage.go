package workflow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"overdub/internal/jobs"
	"overdub/internal/logging"
	"overdub/internal/services"
)

// runStage drives a single stage for the job: transition to the processing
// status, Prepare, Execute under a heartbeat, then record the done status
// unless the handler already moved the job itself.
func (m *Manager) runStage(ctx context.Context, stg pipelineStage, job *jobs.Job) (err error) {
	stageCtx := services.WithStage(ctx, stg.name)
	logger := logging.WithContext(stageCtx, m.logger)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("stage panicked",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldEventType, "stage_panic"),
			)
			err = m.failJob(stageCtx, job, stg.name, fmt.Errorf("%s stage panicked: %v", stg.name, r))
		}
	}()

	started := time.Now()
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := m.transitionToProcessing(stageCtx, stg, job); err != nil {
		m.setLastError(err)
		return err
	}

	if err := stg.handler.Prepare(stageCtx, job); err != nil {
		return m.handleStageFailure(stageCtx, stg, job, fmt.Errorf("prepare: %w", err))
	}
	if err := m.store.Update(stageCtx, job); err != nil {
		m.setLastError(err)
		return fmt.Errorf("persist prepared job %d: %w", job.ID, err)
	}

	if err := m.executeWithHeartbeat(stageCtx, stg, job); err != nil {
		return m.handleStageFailure(stageCtx, stg, job, err)
	}

	// Handlers may steer the job themselves (the approval gate lands on
	// approved or rejected) and set their own message. Only apply the
	// stage's done status, and clear the processing message, when the
	// handler left the job where Execute found it.
	if job.Status == stg.processingStatus {
		job.Status = stg.doneStatus
		job.StatusMessage = ""
	}
	if err := m.store.Update(stageCtx, job); err != nil {
		m.setLastError(err)
		return fmt.Errorf("persist completed job %d: %w", job.ID, err)
	}

	m.setLastJob(job)
	logger.Info("stage completed",
		logging.String("status", string(job.Status)),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "stage_complete"),
	)
	return nil
}

func (m *Manager) transitionToProcessing(ctx context.Context, stg pipelineStage, job *jobs.Job) error {
	now := time.Now().UTC()
	job.Status = stg.processingStatus
	job.StatusMessage = fmt.Sprintf("Running %s", stg.name)
	job.LastHeartbeat = &now
	if err := m.store.Update(ctx, job); err != nil {
		return fmt.Errorf("transition job %d to %s: %w", job.ID, stg.processingStatus, err)
	}
	return nil
}

// executeWithHeartbeat runs the handler while a companion goroutine refreshes
// the job heartbeat so stuck detection can tell live work from crashed work.
func (m *Manager) executeWithHeartbeat(ctx context.Context, stg pipelineStage, job *jobs.Job) error {
	interval := m.heartbeatInterval
	if interval <= 0 {
		return stg.handler.Execute(ctx, job)
	}

	beatCtx, stopBeat := context.WithCancel(ctx)
	defer stopBeat()
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-beatCtx.Done():
				return
			case <-ticker.C:
				if err := m.store.UpdateHeartbeat(beatCtx, job.ID); err != nil && !errors.Is(err, context.Canceled) {
					m.logger.Warn("heartbeat update failed",
						logging.Int64(logging.FieldJobID, job.ID),
						logging.Error(err),
					)
				}
			}
		}
	}()

	defer func() {
		stopBeat()
		<-done
	}()
	return stg.handler.Execute(ctx, job)
}

// handleStageFailure classifies the error and marks the job failed. Shutdown
// cancellation is not a failure: the job keeps its processing status and the
// startup reset rolls it back on the next run.
func (m *Manager) handleStageFailure(ctx context.Context, stg pipelineStage, job *jobs.Job, stageErr error) error {
	if errors.Is(stageErr, context.Canceled) && ctx.Err() != nil {
		return stageErr
	}
	return m.failJob(ctx, job, stg.name, stageErr)
}

func (m *Manager) failJob(ctx context.Context, job *jobs.Job, stageName string, stageErr error) error {
	kind := services.FailureKind(stageErr)
	logger := logging.WithContext(ctx, m.logger)
	logger.Error("stage failed",
		logging.Error(stageErr),
		logging.String("failure_kind", string(kind)),
		logging.String(logging.FieldEventType, "stage_failure"),
	)

	m.setLastError(stageErr)
	job.SetFailed(fmt.Sprintf("%s failed (%s): %v", stageName, kind, stageErr))
	if err := m.store.Update(context.WithoutCancel(ctx), job); err != nil {
		logger.Error("failed to persist job failure", logging.Error(err))
	}
	m.setLastJob(job)

	if m.notifier != nil {
		if err := m.notifier.NotifyFailed(context.WithoutCancel(ctx), job); err != nil {
			logger.Warn("failure notification not delivered", logging.Error(err))
		}
	}
	return stageErr
}
