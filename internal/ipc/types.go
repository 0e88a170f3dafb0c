package ipc

import "overdub/internal/api"

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops daemon workflow.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// JobItem mirrors the HTTP API job DTO for internal IPC callers.
type JobItem = api.JobItem

// StageHealth describes readiness of a workflow stage.
type StageHealth = api.StageHealth

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running     bool           `json:"running"`
	ActiveJobs  int            `json:"active_jobs"`
	JobStats    map[string]int `json:"job_stats"`
	LastError   string         `json:"last_error"`
	LastJob     *JobItem       `json:"last_job"`
	LockPath    string         `json:"lock_path"`
	JobDBPath   string         `json:"job_db_path"`
	StageHealth []StageHealth  `json:"stage_health"`
	PID         int            `json:"pid"`
}

// JobSubmitRequest enqueues a new translation job.
type JobSubmitRequest struct {
	Submit api.SubmitRequest `json:"submit"`
}

// JobSubmitResponse returns the persisted job.
type JobSubmitResponse struct {
	Item JobItem `json:"item"`
}

// JobListRequest filters job listing by status.
type JobListRequest struct {
	Statuses []string `json:"statuses"`
}

// JobListResponse contains job entries.
type JobListResponse struct {
	Items []JobItem `json:"items"`
}

// JobDescribeRequest fetches a single job by id.
type JobDescribeRequest struct {
	ID int64 `json:"id"`
}

// JobDescribeResponse contains a single job.
type JobDescribeResponse struct {
	Item JobItem `json:"item"`
}

// JobDecideRequest delivers an approval verdict for a pending job.
type JobDecideRequest struct {
	ID       int64               `json:"id"`
	Decision api.DecisionRequest `json:"decision"`
}

// JobDecideResponse returns the job the decision was delivered to.
type JobDecideResponse struct {
	Item JobItem `json:"item"`
}

// JobRetryRequest retries failed jobs. Empty list means all failed jobs.
type JobRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// JobRetryResponse reports number of retried jobs.
type JobRetryResponse struct {
	Updated int64 `json:"updated"`
}

// JobStatsRequest fetches job counts per status.
type JobStatsRequest struct{}

// JobStatsResponse reports job counts keyed by status.
type JobStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// TestNotificationRequest triggers a notification delivery test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the delivery attempt result.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
