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

// TranslationCreator registers the job with the translation service. The
// external id is derived from the job key, so a retried or resumed creation
// lands on the same server-side resource.
type TranslationCreator struct {
	client translator.Client
	policy retry.Policy
	logger *slog.Logger
}

func NewTranslationCreator(cfg *config.Config, client translator.Client, logger *slog.Logger) *TranslationCreator {
	return &TranslationCreator{
		client: client,
		policy: policyFromConfig(cfg),
		logger: logging.NewComponentLogger(logger, "create-translation"),
	}
}

func policyFromConfig(cfg *config.Config) retry.Policy {
	policy := retry.Default()
	if cfg.Workflow.RetryAttempts > 0 {
		policy.MaxAttempts = cfg.Workflow.RetryAttempts
	}
	if cfg.Workflow.RetryBaseDelaySeconds > 0 {
		policy.BaseDelay = time.Duration(cfg.Workflow.RetryBaseDelaySeconds) * time.Second
	}
	return policy
}

func (t *TranslationCreator) Prepare(ctx context.Context, job *jobs.Job) error {
	return nil
}

func (t *TranslationCreator) Execute(ctx context.Context, job *jobs.Job) error {
	externalID := stage.TranslationID(job)
	request := translator.TranslationRequest{
		ExternalID:   externalID,
		SourceLocale: job.SourceLocale,
		TargetLocale: job.TargetLocale,
		MediaURL:     job.MediaURL,
		MediaPath:    job.ResolvedMedia,
		VoiceMode:    job.VoiceMode,
		SpeakerCount: job.SpeakerCount,
	}
	if job.MediaURL != "" {
		request.MediaPath = ""
	}

	var created translator.Translation
	err := t.policy.Do(ctx, func(ctx context.Context) error {
		var callErr error
		created, callErr = t.client.CreateTranslation(ctx, request)
		return callErr
	})
	if err != nil {
		return fmt.Errorf("create translation %s: %w", externalID, err)
	}

	job.TranslationID = created.ID
	if job.TranslationID == "" {
		job.TranslationID = externalID
	}
	t.logger.Info("translation created",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("translation_id", job.TranslationID),
	)
	return nil
}

func (t *TranslationCreator) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("create-translation")
}

// ReadinessWaiter polls the translation resource until the service reports
// it ready for iterations. The poll is bounded: passing the ceiling is a
// timeout failure, distinct from the service reporting the translation
// failed.
type ReadinessWaiter struct {
	client       translator.Client
	pollInterval time.Duration
	timeout      time.Duration
	logger       *slog.Logger
}

func NewReadinessWaiter(cfg *config.Config, client translator.Client, logger *slog.Logger) *ReadinessWaiter {
	return &ReadinessWaiter{
		client:       client,
		pollInterval: secondsOrDefault(cfg.Workflow.ReadinessPollInterval, 5*time.Second),
		timeout:      secondsOrDefault(cfg.Workflow.ReadinessTimeout, 15*time.Minute),
		logger:       logging.NewComponentLogger(logger, "await-readiness"),
	}
}

func secondsOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func (r *ReadinessWaiter) Prepare(ctx context.Context, job *jobs.Job) error {
	if job.TranslationID == "" {
		return services.Wrap(services.ErrValidation, "await-readiness", "prepare",
			"job has no translation id", nil)
	}
	return nil
}

func (r *ReadinessWaiter) Execute(ctx context.Context, job *jobs.Job) error {
	check := func(ctx context.Context) (bool, string, error) {
		state, err := r.client.TranslationStatus(ctx, job.TranslationID)
		if err != nil {
			return false, "", err
		}
		if state.Terminal && !state.Succeeded {
			return false, "", services.Wrap(services.ErrExternal, "await-readiness", "translation_status",
				fmt.Sprintf("translation %s failed: %s", job.TranslationID, state.Message), nil)
		}
		return state.Succeeded, state.Status, nil
	}
	return pollUntil(ctx, r.logger, job, pollSpec{
		name:     "await-readiness",
		what:     fmt.Sprintf("translation %s readiness", job.TranslationID),
		interval: r.pollInterval,
		timeout:  r.timeout,
	}, check)
}

func (r *ReadinessWaiter) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("await-readiness")
}
