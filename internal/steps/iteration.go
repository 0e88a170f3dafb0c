package steps

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"overdub/internal/config"
	"overdub/internal/jobs"
	"overdub/internal/logging"
	"overdub/internal/retry"
	"overdub/internal/services"
	"overdub/internal/services/translator"
	"overdub/internal/stage"
)

// IterationCreator starts a processing iteration for a ready translation.
// Like translation creation, the external id is deterministic so resumes
// reuse the server-side iteration instead of minting a second one.
type IterationCreator struct {
	client translator.Client
	policy retry.Policy
	logger *slog.Logger
}

func NewIterationCreator(cfg *config.Config, client translator.Client, logger *slog.Logger) *IterationCreator {
	return &IterationCreator{
		client: client,
		policy: policyFromConfig(cfg),
		logger: logging.NewComponentLogger(logger, "create-iteration"),
	}
}

func (i *IterationCreator) Prepare(ctx context.Context, job *jobs.Job) error {
	if job.TranslationID == "" {
		return services.Wrap(services.ErrValidation, "create-iteration", "prepare",
			"job has no translation id", nil)
	}
	if job.IterationNumber <= 0 {
		job.IterationNumber = 1
	}
	return nil
}

func (i *IterationCreator) Execute(ctx context.Context, job *jobs.Job) error {
	externalID := stage.IterationID(job)
	request := translator.IterationRequest{
		TranslationID: job.TranslationID,
		ExternalID:    externalID,
		Number:        job.IterationNumber,
	}

	var created translator.Iteration
	err := i.policy.Do(ctx, func(ctx context.Context) error {
		var callErr error
		created, callErr = i.client.CreateIteration(ctx, request)
		return callErr
	})
	if err != nil {
		return fmt.Errorf("create iteration %s: %w", externalID, err)
	}

	job.IterationID = created.ID
	if job.IterationID == "" {
		job.IterationID = externalID
	}
	i.logger.Info("iteration created",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("iteration_id", job.IterationID),
	)
	return nil
}

func (i *IterationCreator) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("create-iteration")
}

// ProcessingWaiter polls the iteration until the service finishes it and
// records the output artifact URLs on the job.
type ProcessingWaiter struct {
	client       translator.Client
	pollInterval time.Duration
	timeout      time.Duration
	logger       *slog.Logger
}

func NewProcessingWaiter(cfg *config.Config, client translator.Client, logger *slog.Logger) *ProcessingWaiter {
	return &ProcessingWaiter{
		client:       client,
		pollInterval: secondsOrDefault(cfg.Workflow.ProcessingPollInterval, 30*time.Second),
		timeout:      secondsOrDefault(cfg.Workflow.ProcessingTimeout, 60*time.Minute),
		logger:       logging.NewComponentLogger(logger, "process-iteration"),
	}
}

func (p *ProcessingWaiter) Prepare(ctx context.Context, job *jobs.Job) error {
	if job.TranslationID == "" || job.IterationID == "" {
		return services.Wrap(services.ErrValidation, "process-iteration", "prepare",
			"job has no iteration to wait on", nil)
	}
	return nil
}

func (p *ProcessingWaiter) Execute(ctx context.Context, job *jobs.Job) error {
	check := func(ctx context.Context) (bool, string, error) {
		state, err := p.client.IterationStatus(ctx, job.TranslationID, job.IterationID)
		if err != nil {
			return false, "", err
		}
		if state.Terminal && !state.Succeeded {
			return false, "", services.Wrap(services.ErrExternal, "process-iteration", "iteration_status",
				fmt.Sprintf("iteration %s failed: %s", job.IterationID, state.Message), nil)
		}
		if !state.Succeeded {
			return false, state.Status, nil
		}
		if state.Outputs.VideoURL == "" {
			return false, "", services.Wrap(services.ErrExternal, "process-iteration", "iteration_status",
				fmt.Sprintf("iteration %s succeeded without a video output", job.IterationID), nil)
		}
		job.OutputVideoURL = state.Outputs.VideoURL
		job.SourceSubtitleURL = state.Outputs.SourceSubtitleURL
		job.TargetSubtitleURL = state.Outputs.TargetSubtitleURL
		return true, state.Status, nil
	}
	return pollUntil(ctx, p.logger, job, pollSpec{
		name:     "process-iteration",
		what:     fmt.Sprintf("iteration %s completion", job.IterationID),
		interval: p.pollInterval,
		timeout:  p.timeout,
	}, check)
}

func (p *ProcessingWaiter) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("process-iteration")
}
