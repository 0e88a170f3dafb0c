package workflow

import (
	"log/slog"
	"sync"
	"time"

	"overdub/internal/config"
	"overdub/internal/jobs"
	"overdub/internal/logging"
	"overdub/internal/notifications"
	"overdub/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	Validator          stage.Handler
	TranslationCreator stage.Handler
	ReadinessWaiter    stage.Handler
	IterationCreator   stage.Handler
	ProcessingWaiter   stage.Handler
	OutputCopier       stage.Handler
	Reviewer           stage.Handler
	ApprovalGate       stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      jobs.Status
	processingStatus jobs.Status
	doneStatus       jobs.Status
}

// Manager coordinates job processing using registered stage handlers.
type Manager struct {
	cfg      *config.Config
	store    *jobs.Store
	logger   *slog.Logger
	notifier notifications.Service

	stages       []pipelineStage
	stageByStart map[jobs.Status]pipelineStage
	startOrder   []jobs.Status

	pollInterval       time.Duration
	errorRetryInterval time.Duration
	heartbeatInterval  time.Duration
	maxActive          int

	mu      sync.RWMutex
	running bool
	cancel  func()
	wg      sync.WaitGroup
	active  map[int64]struct{}
	lastErr error
	lastJob *jobs.Job
}

// NewManager constructs a workflow manager with the default notifier.
func NewManager(cfg *config.Config, store *jobs.Store, logger *slog.Logger, set StageSet) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg), set)
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier
// (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *jobs.Store, logger *slog.Logger, notifier notifications.Service, set StageSet) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	maxActive := cfg.Workflow.MaxActiveJobs
	if maxActive <= 0 {
		maxActive = 1
	}

	manager := &Manager{
		cfg:                cfg,
		store:              store,
		logger:             logger.With(logging.String(logging.FieldComponent, "workflow-manager")),
		notifier:           notifier,
		pollInterval:       time.Duration(cfg.Workflow.JobPollInterval) * time.Second,
		errorRetryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		heartbeatInterval:  time.Duration(cfg.Workflow.HeartbeatInterval) * time.Second,
		maxActive:          maxActive,
		active:             make(map[int64]struct{}),
	}
	manager.configureStages(set)
	return manager
}

func (m *Manager) configureStages(set StageSet) {
	m.stages = []pipelineStage{
		{"validate", set.Validator, jobs.StatusSubmitted, jobs.StatusValidating, jobs.StatusValidated},
		{"create-translation", set.TranslationCreator, jobs.StatusValidated, jobs.StatusCreatingTranslation, jobs.StatusTranslationCreated},
		{"await-readiness", set.ReadinessWaiter, jobs.StatusTranslationCreated, jobs.StatusAwaitingReadiness, jobs.StatusTranslationReady},
		{"create-iteration", set.IterationCreator, jobs.StatusTranslationReady, jobs.StatusCreatingIteration, jobs.StatusIterationCreated},
		{"process-iteration", set.ProcessingWaiter, jobs.StatusIterationCreated, jobs.StatusProcessing, jobs.StatusProcessed},
		{"copy-outputs", set.OutputCopier, jobs.StatusProcessed, jobs.StatusCopyingOutputs, jobs.StatusOutputsCopied},
		{"run-review", set.Reviewer, jobs.StatusOutputsCopied, jobs.StatusRunningValidation, jobs.StatusReviewComplete},
		{"approval-gate", set.ApprovalGate, jobs.StatusReviewComplete, jobs.StatusPendingApproval, jobs.StatusApproved},
	}
	m.stageByStart = make(map[jobs.Status]pipelineStage, len(m.stages))
	m.startOrder = make([]jobs.Status, 0, len(m.stages))
	for _, stg := range m.stages {
		m.stageByStart[stg.startStatus] = stg
		m.startOrder = append(m.startOrder, stg.startStatus)
	}
}

func (m *Manager) stageForStatus(status jobs.Status) (pipelineStage, bool) {
	stg, ok := m.stageByStart[status]
	return stg, ok
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *jobs.Job) {
	m.mu.Lock()
	if job != nil {
		copied := *job
		m.lastJob = &copied
	} else {
		m.lastJob = nil
	}
	m.mu.Unlock()
}
