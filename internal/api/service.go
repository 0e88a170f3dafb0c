package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"overdub/internal/approvals"
	"overdub/internal/jobs"
	"overdub/internal/services"
)

// JobStore abstracts the job persistence operations the service needs.
type JobStore interface {
	NewJob(ctx context.Context, req jobs.SubmitRequest) (*jobs.Job, error)
	List(ctx context.Context, statuses ...jobs.Status) ([]*jobs.Job, error)
	GetByID(ctx context.Context, id int64) (*jobs.Job, error)
	Stats(ctx context.Context) (map[jobs.Status]int, error)
	RetryFailed(ctx context.Context, ids ...int64) (int64, error)
}

// Service exposes the job operations shared by the IPC and HTTP surfaces.
type Service struct {
	store JobStore
	hub   *approvals.Hub
}

// NewService constructs a Service around the store and approval hub.
func NewService(store JobStore, hub *approvals.Hub) *Service {
	return &Service{store: store, hub: hub}
}

// Submit validates and persists a new job, returning its API representation.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (JobItem, error) {
	hasURL := strings.TrimSpace(req.MediaURL) != ""
	hasPath := strings.TrimSpace(req.MediaPath) != ""
	if hasURL == hasPath {
		return JobItem{}, services.Wrap(services.ErrValidation, "api", "submit",
			"exactly one of mediaUrl or mediaPath is required", nil)
	}

	job, err := s.store.NewJob(ctx, jobs.SubmitRequest{
		SourceLocale:  req.SourceLocale,
		TargetLocale:  req.TargetLocale,
		MediaURL:      req.MediaURL,
		MediaPath:     req.MediaPath,
		VoiceMode:     req.VoiceMode,
		SpeakerCount:  req.SpeakerCount,
		SubtitleChars: req.SubtitleChars,
		SubtitleLines: req.SubtitleLines,
	})
	if err != nil {
		return JobItem{}, services.Wrap(services.ErrValidation, "api", "submit", "job rejected", err)
	}
	return FromJob(job), nil
}

// List returns jobs filtered by status names. Unknown names are rejected.
func (s *Service) List(ctx context.Context, statusNames ...string) ([]JobItem, error) {
	statuses := make([]jobs.Status, 0, len(statusNames))
	for _, name := range statusNames {
		status, ok := jobs.ParseStatus(name)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "api", "list",
				fmt.Sprintf("unknown status filter %q", name), nil)
		}
		statuses = append(statuses, status)
	}
	items, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(items), nil
}

// Describe fetches a single job by id.
func (s *Service) Describe(ctx context.Context, id int64) (*JobItem, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "api", "describe",
			fmt.Sprintf("job %d not found", id), nil)
	}
	dto := FromJob(job)
	return &dto, nil
}

// Decide delivers a human approval verdict to a job waiting at the gate.
func (s *Service) Decide(ctx context.Context, id int64, req DecisionRequest) (JobItem, error) {
	if strings.TrimSpace(req.Reviewer) == "" {
		return JobItem{}, services.Wrap(services.ErrValidation, "api", "decide",
			"a reviewer is required", nil)
	}

	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return JobItem{}, err
	}
	if job == nil {
		return JobItem{}, services.Wrap(services.ErrNotFound, "api", "decide",
			fmt.Sprintf("job %d not found", id), nil)
	}
	if job.Status != jobs.StatusPendingApproval {
		return JobItem{}, services.Wrap(services.ErrValidation, "api", "decide",
			fmt.Sprintf("job %d is %s, not pending approval", id, job.Status), nil)
	}

	decision := jobs.ApprovalDecision{
		Approved:  req.Approved,
		Reviewer:  strings.TrimSpace(req.Reviewer),
		Reason:    strings.TrimSpace(req.Reason),
		Comments:  strings.TrimSpace(req.Comments),
		DecidedAt: time.Now().UTC(),
	}
	if err := s.hub.Resolve(id, decision); err != nil {
		return JobItem{}, services.Wrap(services.ErrValidation, "api", "decide",
			fmt.Sprintf("job %d has no active approval wait", id), err)
	}
	return FromJob(job), nil
}

// Retry moves failed jobs back to submitted. Empty ids retry every failed job.
func (s *Service) Retry(ctx context.Context, ids ...int64) (int64, error) {
	return s.store.RetryFailed(ctx, ids...)
}

// Stats returns job counts keyed by status string.
func (s *Service) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeJobStats(stats), nil
}
