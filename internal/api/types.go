package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobItem describes a job in a transport-friendly format.
type JobItem struct {
	ID               int64           `json:"id"`
	JobKey           string          `json:"jobKey"`
	Status           string          `json:"status"`
	StatusMessage    string          `json:"statusMessage,omitempty"`
	SourceLocale     string          `json:"sourceLocale"`
	TargetLocale     string          `json:"targetLocale"`
	MediaURL         string          `json:"mediaUrl,omitempty"`
	MediaPath        string          `json:"mediaPath,omitempty"`
	VoiceMode        string          `json:"voiceMode,omitempty"`
	SpeakerCount     int             `json:"speakerCount,omitempty"`
	TranslationID    string          `json:"translationId,omitempty"`
	IterationID      string          `json:"iterationId,omitempty"`
	IterationNumber  int             `json:"iterationNumber,omitempty"`
	OutputVideo      string          `json:"outputVideo,omitempty"`
	ErrorMessage     string          `json:"errorMessage,omitempty"`
	DegradedSteps    int             `json:"degradedSteps,omitempty"`
	NeedsReview      bool            `json:"needsReview"`
	ReviewReason     string          `json:"reviewReason,omitempty"`
	Review           json.RawMessage `json:"review,omitempty"`
	Decision         json.RawMessage `json:"decision,omitempty"`
	CreatedAt        string          `json:"createdAt,omitempty"`
	UpdatedAt        string          `json:"updatedAt,omitempty"`
	ApprovalDeadline string          `json:"approvalDeadline,omitempty"`
}

// SubmitRequest carries the parameters callers provide for a new job.
type SubmitRequest struct {
	SourceLocale  string `json:"sourceLocale"`
	TargetLocale  string `json:"targetLocale"`
	MediaURL      string `json:"mediaUrl,omitempty"`
	MediaPath     string `json:"mediaPath,omitempty"`
	VoiceMode     string `json:"voiceMode,omitempty"`
	SpeakerCount  int    `json:"speakerCount,omitempty"`
	SubtitleChars int    `json:"subtitleChars,omitempty"`
	SubtitleLines int    `json:"subtitleLines,omitempty"`
}

// DecisionRequest carries a human approval verdict for a pending job.
type DecisionRequest struct {
	Approved bool   `json:"approved"`
	Reviewer string `json:"reviewer"`
	Reason   string `json:"reason,omitempty"`
	Comments string `json:"comments,omitempty"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	ActiveJobs  int            `json:"activeJobs"`
	JobStats    map[string]int `json:"jobStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastJob     *JobItem       `json:"lastJob,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	JobDBPath    string         `json:"jobDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	Workflow     WorkflowStatus `json:"workflow"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Items []JobItem `json:"items"`
}

// JobItemResponse wraps a single job.
type JobItemResponse struct {
	Item JobItem `json:"item"`
}

// JobStatsResponse provides a normalized job stats payload.
type JobStatsResponse struct {
	Counts map[string]int `json:"counts"`
}
