package workflow

import (
	"context"

	"overdub/internal/jobs"
	"overdub/internal/stage"
)

// StatusSummary is a point-in-time snapshot of the manager for status
// reporting surfaces.
type StatusSummary struct {
	Running     bool
	ActiveJobs  int
	LastError   error
	LastJob     *jobs.Job
	JobStats    map[jobs.Status]int
	StageHealth []stage.Health
}

// Status reports the manager state plus queue statistics and per-stage
// readiness probes.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running:    m.running,
		ActiveJobs: len(m.active),
		LastError:  m.lastErr,
	}
	if m.lastJob != nil {
		jobCopy := *m.lastJob
		summary.LastJob = &jobCopy
	}
	stages := m.stages
	m.mu.RUnlock()

	if stats, err := m.store.Stats(ctx); err == nil {
		summary.JobStats = stats
	}

	summary.StageHealth = make([]stage.Health, 0, len(stages))
	for _, stg := range stages {
		health := stg.handler.HealthCheck(ctx)
		if health.Name == "" {
			health.Name = stg.name
		}
		summary.StageHealth = append(summary.StageHealth, health)
	}
	return summary
}

// Running reports whether background processing is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}
