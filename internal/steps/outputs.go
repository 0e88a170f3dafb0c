package steps

import (
	"context"
	"log/slog"

	"overdub/internal/config"
	"overdub/internal/jobs"
	"overdub/internal/logging"
	"overdub/internal/outputs"
	"overdub/internal/stage"
)

// OutputCopier pulls iteration artifacts into the owned library directory.
// The copy is best effort: on failure the job keeps the external URLs,
// records a degraded step, and moves on.
type OutputCopier struct {
	copier *outputs.Copier
	cfg    *config.Config
	logger *slog.Logger
}

func NewOutputCopier(cfg *config.Config, copier *outputs.Copier, logger *slog.Logger) *OutputCopier {
	return &OutputCopier{
		copier: copier,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "copy-outputs"),
	}
}

func (o *OutputCopier) Prepare(ctx context.Context, job *jobs.Job) error {
	return nil
}

func (o *OutputCopier) Execute(ctx context.Context, job *jobs.Job) error {
	result, err := o.copier.Copy(ctx, job)
	if err != nil {
		o.logger.Warn("output copy failed, keeping external URLs",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.Error(err),
		)
		job.MarkDegraded("output copy failed")
		return nil
	}

	job.StoredVideoPath = result.VideoPath
	job.StoredSourcePath = result.SourceSubtitlePath
	job.StoredTargetPath = result.TargetSubtitlePath
	o.logger.Info("outputs copied",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("video", result.VideoPath),
	)
	return nil
}

func (o *OutputCopier) HealthCheck(ctx context.Context) stage.Health {
	if o.cfg.Paths.LibraryDir == "" {
		return stage.Unhealthy("copy-outputs", "library directory not configured")
	}
	return stage.Healthy("copy-outputs")
}
