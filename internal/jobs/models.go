package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a translation job.
type Status string

const (
	StatusSubmitted           Status = "submitted"
	StatusValidating          Status = "validating"
	StatusValidated           Status = "validated"
	StatusCreatingTranslation Status = "creating_translation"
	StatusTranslationCreated  Status = "translation_created"
	StatusAwaitingReadiness   Status = "awaiting_readiness"
	StatusTranslationReady    Status = "translation_ready"
	StatusCreatingIteration   Status = "creating_iteration"
	StatusIterationCreated    Status = "iteration_created"
	StatusProcessing          Status = "processing"
	StatusProcessed           Status = "processed"
	StatusCopyingOutputs      Status = "copying_outputs"
	StatusOutputsCopied       Status = "outputs_copied"
	StatusRunningValidation   Status = "running_validation"
	StatusReviewComplete      Status = "review_complete"
	StatusPendingApproval     Status = "pending_approval"
	StatusApproved            Status = "approved"
	StatusRejected            Status = "rejected"
	StatusFailed              Status = "failed"
)

// SystemReviewer is the reviewer identity recorded when the approval window
// expires without a human decision.
const SystemReviewer = "system"

// DaemonStopReason is the error message set when jobs are interrupted by
// daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var statusOrder = []Status{
	StatusSubmitted,
	StatusValidating,
	StatusValidated,
	StatusCreatingTranslation,
	StatusTranslationCreated,
	StatusAwaitingReadiness,
	StatusTranslationReady,
	StatusCreatingIteration,
	StatusIterationCreated,
	StatusProcessing,
	StatusProcessed,
	StatusCopyingOutputs,
	StatusOutputsCopied,
	StatusRunningValidation,
	StatusReviewComplete,
	StatusPendingApproval,
	StatusApproved,
	StatusRejected,
	StatusFailed,
}

var statusIndex = func() map[Status]int {
	idx := make(map[Status]int, len(statusOrder))
	for i, status := range statusOrder {
		idx[status] = i
	}
	return idx
}()

var processingStatuses = map[Status]struct{}{
	StatusValidating:          {},
	StatusCreatingTranslation: {},
	StatusAwaitingReadiness:   {},
	StatusCreatingIteration:   {},
	StatusProcessing:          {},
	StatusCopyingOutputs:      {},
	StatusRunningValidation:   {},
	StatusPendingApproval:     {},
}

// stageRollbacks maps each in-flight status back to the status the owning
// stage starts from, used when the daemon restarts mid-step.
var stageRollbacks = map[Status]Status{
	StatusValidating:          StatusSubmitted,
	StatusCreatingTranslation: StatusValidated,
	StatusAwaitingReadiness:   StatusTranslationCreated,
	StatusCreatingIteration:   StatusTranslationReady,
	StatusProcessing:          StatusIterationCreated,
	StatusCopyingOutputs:      StatusProcessed,
	StatusRunningValidation:   StatusOutputsCopied,
	StatusPendingApproval:     StatusReviewComplete,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(statusOrder))
	copy(cp, statusOrder)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusIndex[normalized]
	return normalized, ok
}

// Index returns the position of a status in the forward ordering, or -1 for
// unknown statuses.
func (s Status) Index() int {
	if i, ok := statusIndex[s]; ok {
		return i
	}
	return -1
}

// IsTerminal reports whether a status can never transition again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusFailed:
		return true
	default:
		return false
	}
}

// IsProcessingStatus reports whether a status reflects an in-flight step.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// RollbackStatus returns the stage start status an in-flight status resumes
// from after a crash.
func RollbackStatus(status Status) (Status, bool) {
	start, ok := stageRollbacks[status]
	return start, ok
}

// CanTransition reports whether moving from one status to another respects the
// forward-only ordering. Failed is reachable from any non-terminal status.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	fi, ti := from.Index(), to.Index()
	if fi < 0 || ti < 0 {
		return false
	}
	return ti > fi
}

// ApprovalDecision records how a pending job left the approval gate.
type ApprovalDecision struct {
	Approved  bool      `json:"approved"`
	Reviewer  string    `json:"reviewer"`
	Reason    string    `json:"reason,omitempty"`
	Comments  string    `json:"comments,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// HealthSummary describes aggregated job counts per key lifecycle state.
type HealthSummary struct {
	Total      int
	Submitted  int
	Processing int
	Pending    int
	Failed     int
	Approved   int
	Rejected   int
}

// Job represents a translation job persisted in SQLite.
type Job struct {
	ID              int64
	JobKey          string
	Status          Status
	StatusMessage   string
	SourceLocale    string
	TargetLocale    string
	MediaURL        string
	MediaPath       string
	ResolvedMedia   string
	VoiceMode       string
	SpeakerCount    int
	SubtitleChars   int
	SubtitleLines   int
	TranslationID   string
	IterationID     string
	IterationNumber int

	OutputVideoURL    string
	SourceSubtitleURL string
	TargetSubtitleURL string
	StoredVideoPath   string
	StoredSourcePath  string
	StoredTargetPath  string

	ReviewJSON   string
	DecisionJSON string

	ErrorMessage  string
	DegradedSteps int
	NeedsReview   bool
	ReviewReason  string

	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastHeartbeat    *time.Time
	ApprovalDeadline *time.Time
}

// IsProcessing returns true when the job's status reflects an in-flight step.
func (j Job) IsProcessing() bool {
	return IsProcessingStatus(j.Status)
}

// SetFailed marks the job as failed with the given error message.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.StatusMessage = message
	j.LastHeartbeat = nil
}

// MarkDegraded records a non-fatal step failure. Two or more degraded steps
// flag the job for human attention without blocking the workflow.
func (j *Job) MarkDegraded(reason string) {
	j.DegradedSteps++
	if reason = strings.TrimSpace(reason); reason != "" {
		if j.ReviewReason == "" {
			j.ReviewReason = reason
		} else if !strings.Contains(j.ReviewReason, reason) {
			j.ReviewReason += "; " + reason
		}
	}
	if j.DegradedSteps >= 2 {
		j.NeedsReview = true
	}
}

// Decision returns the persisted approval decision, if any.
func (j Job) Decision() (*ApprovalDecision, error) {
	raw := strings.TrimSpace(j.DecisionJSON)
	if raw == "" {
		return nil, nil
	}
	var decision ApprovalDecision
	if err := json.Unmarshal([]byte(raw), &decision); err != nil {
		return nil, fmt.Errorf("decode approval decision: %w", err)
	}
	return &decision, nil
}

// SetDecision stores the approval decision on the job.
func (j *Job) SetDecision(decision ApprovalDecision) error {
	if strings.TrimSpace(decision.Reviewer) == "" {
		return errors.New("approval decision requires a reviewer")
	}
	encoded, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("encode approval decision: %w", err)
	}
	j.DecisionJSON = string(encoded)
	return nil
}

// OutputVideo returns the preferred video artifact location: the owned copy
// when the output-copy step succeeded, otherwise the external URL.
func (j Job) OutputVideo() string {
	if j.StoredVideoPath != "" {
		return j.StoredVideoPath
	}
	return j.OutputVideoURL
}
