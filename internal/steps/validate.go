package steps

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"overdub/internal/config"
	"overdub/internal/jobs"
	"overdub/internal/locales"
	"overdub/internal/logging"
	"overdub/internal/services"
	"overdub/internal/stage"
)

const maxSpeakerCount = 12

// Validator checks a submitted job before any external call is made.
// Validation failures are permanent: the caller must fix the request and
// submit a new job.
type Validator struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewValidator(cfg *config.Config, logger *slog.Logger) *Validator {
	return &Validator{cfg: cfg, logger: logging.NewComponentLogger(logger, "validate")}
}

func (v *Validator) Prepare(ctx context.Context, job *jobs.Job) error {
	return nil
}

func (v *Validator) Execute(ctx context.Context, job *jobs.Job) error {
	hasURL := strings.TrimSpace(job.MediaURL) != ""
	hasPath := strings.TrimSpace(job.MediaPath) != ""
	if hasURL == hasPath {
		return services.Wrap(services.ErrValidation, "validate", "media_reference",
			"exactly one of media URL or media path is required", nil)
	}

	for field, value := range map[string]string{
		"source locale": job.SourceLocale,
		"target locale": job.TargetLocale,
	} {
		if _, err := locales.Normalize(value); err != nil {
			return services.Wrap(services.ErrValidation, "validate", "locale",
				fmt.Sprintf("%s %q is not a valid BCP 47 tag", field, value), err)
		}
	}
	if locales.Equal(job.SourceLocale, job.TargetLocale) {
		return services.Wrap(services.ErrValidation, "validate", "locale",
			"source and target locales must differ", nil)
	}

	if job.SpeakerCount < 0 || job.SpeakerCount > maxSpeakerCount {
		return services.Wrap(services.ErrValidation, "validate", "speaker_count",
			fmt.Sprintf("speaker count %d outside [0, %d]", job.SpeakerCount, maxSpeakerCount), nil)
	}
	if job.SubtitleChars < 0 || job.SubtitleLines < 0 {
		return services.Wrap(services.ErrValidation, "validate", "subtitle_constraints",
			"subtitle constraints must not be negative", nil)
	}

	resolved, err := v.resolveMedia(job)
	if err != nil {
		return err
	}
	job.ResolvedMedia = resolved

	v.logger.Info("job validated",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("source", job.SourceLocale),
		logging.String("target", job.TargetLocale),
	)
	return nil
}

func (v *Validator) resolveMedia(job *jobs.Job) (string, error) {
	if job.MediaURL != "" {
		parsed, err := url.Parse(job.MediaURL)
		if err != nil || parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
			return "", services.Wrap(services.ErrValidation, "validate", "media_url",
				fmt.Sprintf("media URL %q is not an absolute http(s) URL", job.MediaURL), err)
		}
		return parsed.String(), nil
	}

	path := job.MediaPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.cfg.Paths.MediaDir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "validate", "media_path",
			fmt.Sprintf("media file %q is not readable", job.MediaPath), err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrValidation, "validate", "media_path",
			fmt.Sprintf("media path %q is a directory", job.MediaPath), nil)
	}
	if info.Size() == 0 {
		return "", services.Wrap(services.ErrValidation, "validate", "media_path",
			fmt.Sprintf("media file %q is empty", job.MediaPath), nil)
	}
	return path, nil
}

func (v *Validator) HealthCheck(ctx context.Context) stage.Health {
	if v.cfg.Paths.MediaDir == "" {
		return stage.Unhealthy("validate", "media directory not configured")
	}
	return stage.Healthy("validate")
}
