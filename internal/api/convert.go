package api

import (
	"encoding/json"

	"overdub/internal/jobs"
	"overdub/internal/workflow"
)

// FromJob converts a stored job to its API representation.
func FromJob(job *jobs.Job) JobItem {
	if job == nil {
		return JobItem{}
	}

	dto := JobItem{
		ID:              job.ID,
		JobKey:          job.JobKey,
		Status:          string(job.Status),
		StatusMessage:   job.StatusMessage,
		SourceLocale:    job.SourceLocale,
		TargetLocale:    job.TargetLocale,
		MediaURL:        job.MediaURL,
		MediaPath:       job.MediaPath,
		VoiceMode:       job.VoiceMode,
		SpeakerCount:    job.SpeakerCount,
		TranslationID:   job.TranslationID,
		IterationID:     job.IterationID,
		IterationNumber: job.IterationNumber,
		OutputVideo:     job.OutputVideo(),
		ErrorMessage:    job.ErrorMessage,
		DegradedSteps:   job.DegradedSteps,
		NeedsReview:     job.NeedsReview,
		ReviewReason:    job.ReviewReason,
	}
	if raw := job.ReviewJSON; raw != "" {
		dto.Review = json.RawMessage(raw)
	}
	if raw := job.DecisionJSON; raw != "" {
		dto.Decision = json.RawMessage(raw)
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if job.ApprovalDeadline != nil {
		dto.ApprovalDeadline = job.ApprovalDeadline.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of stored jobs into API DTOs.
func FromJobs(items []*jobs.Job) []JobItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]JobItem, 0, len(items))
	for _, job := range items {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to an API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	status := WorkflowStatus{
		Running:    summary.Running,
		ActiveJobs: summary.ActiveJobs,
		JobStats:   MergeJobStats(summary.JobStats),
	}
	if summary.LastError != nil {
		status.LastError = summary.LastError.Error()
	}
	if summary.LastJob != nil {
		item := FromJob(summary.LastJob)
		status.LastJob = &item
	}
	status.StageHealth = make([]StageHealth, 0, len(summary.StageHealth))
	for _, health := range summary.StageHealth {
		status.StageHealth = append(status.StageHealth, StageHealth{
			Name:   health.Name,
			Ready:  health.Ready,
			Detail: health.Detail,
		})
	}
	return status
}

// MergeJobStats normalizes status-keyed counts into string keys.
func MergeJobStats(stats map[jobs.Status]int) map[string]int {
	if len(stats) == 0 {
		return map[string]int{}
	}
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}
