package workflow

import (
	"context"
	"errors"
	"time"

	"overdub/internal/jobs"
	"overdub/internal/logging"
	"overdub/internal/services"
)

// Start begins background processing. Jobs left in an in-flight status by a
// previous run are rolled back to their stage start status first, so they
// resume cleanly.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.stages) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	if reset, err := m.store.ResetStuckProcessing(runCtx); err != nil {
		m.logger.Warn("resetting interrupted jobs failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "startup_reset_failed"),
		)
	} else if reset > 0 {
		m.logger.Info("resumed interrupted jobs", logging.Int64("count", reset))
	}

	go m.dispatch(runCtx)
	return nil
}

// Stop terminates background processing and waits for in-flight runners.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// dispatch claims runnable jobs and hands each to its own runner goroutine,
// never exceeding the configured active ceiling.
func (m *Manager) dispatch(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		exclude, slots := m.claimState()
		if slots <= 0 {
			m.waitForJobOrShutdown(ctx)
			continue
		}

		job, err := m.store.NextForStatuses(ctx, exclude, m.startOrder...)
		if err != nil {
			m.setLastError(err)
			m.logger.Error("failed to fetch next job",
				logging.Error(err),
				logging.String(logging.FieldEventType, "job_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check job database access"),
			)
			m.waitOrShutdown(ctx, m.errorRetryInterval)
			continue
		}
		if job == nil {
			m.waitForJobOrShutdown(ctx)
			continue
		}

		if !m.markActive(job.ID) {
			continue
		}
		m.wg.Add(1)
		go m.runJob(ctx, job)
	}
}

func (m *Manager) claimState() ([]int64, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	exclude := make([]int64, 0, len(m.active))
	for id := range m.active {
		exclude = append(exclude, id)
	}
	return exclude, m.maxActive - len(m.active)
}

func (m *Manager) markActive(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[id]; ok {
		return false
	}
	if len(m.active) >= m.maxActive {
		return false
	}
	m.active[id] = struct{}{}
	return true
}

func (m *Manager) releaseActive(id int64) {
	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()
}

// runJob executes the job's stages strictly forward until it reaches a
// terminal status, fails, or the daemon shuts down.
func (m *Manager) runJob(ctx context.Context, job *jobs.Job) {
	defer m.wg.Done()
	defer m.releaseActive(job.ID)

	jobCtx := services.WithJobKey(services.WithJobID(ctx, job.ID), job.JobKey)
	logger := logging.WithContext(jobCtx, m.logger)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if job.Status.IsTerminal() {
			return
		}

		stg, ok := m.stageForStatus(job.Status)
		if !ok {
			logger.Warn("no stage configured for status", logging.String("status", string(job.Status)))
			return
		}

		if err := m.runStage(jobCtx, stg, job); err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Debug("job interrupted by shutdown")
			}
			return
		}
	}
}

func (m *Manager) waitForJobOrShutdown(ctx context.Context) {
	m.waitOrShutdown(ctx, m.pollInterval)
}

func (m *Manager) waitOrShutdown(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		delay = time.Second
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
