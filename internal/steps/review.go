package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"overdub/internal/jobs"
	"overdub/internal/logging"
	"overdub/internal/review"
	"overdub/internal/stage"
	"overdub/internal/subtitles"
)

// ReviewRunner is the slice of review.Coordinator the stage needs.
type ReviewRunner interface {
	Run(ctx context.Context, jobCtx review.JobContext) (review.AggregatedReview, error)
}

// Reviewer runs the multi-agent quality review and persists its result on
// the job. A coordinator failure is logged as a degraded step; the job still
// reaches the approval gate, just without an automated review.
type Reviewer struct {
	coordinator ReviewRunner
	fetcher     subtitles.Fetcher
	logger      *slog.Logger
}

func NewReviewer(coordinator ReviewRunner, fetcher subtitles.Fetcher, logger *slog.Logger) *Reviewer {
	return &Reviewer{
		coordinator: coordinator,
		fetcher:     fetcher,
		logger:      logging.NewComponentLogger(logger, "run-review"),
	}
}

func (r *Reviewer) Prepare(ctx context.Context, job *jobs.Job) error {
	return nil
}

func (r *Reviewer) Execute(ctx context.Context, job *jobs.Job) error {
	result, err := r.coordinator.Run(ctx, newReviewContext(job, r.fetcher))
	if err != nil {
		r.logger.Warn("quality review failed, proceeding without one",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.Error(err),
		)
		job.MarkDegraded("quality review unavailable")
		return nil
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		r.logger.Warn("quality review result not serializable",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.Error(err),
		)
		job.MarkDegraded("quality review unavailable")
		return nil
	}
	job.ReviewJSON = string(encoded)

	r.logger.Info("quality review complete",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.Float64("overall_score", result.OverallScore),
		logging.String("recommendation", string(result.Recommendation)),
	)
	return nil
}

func (r *Reviewer) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("run-review")
}

// reviewContext adapts a job and its subtitle artifacts to the read-only
// surface review agents query through tool calls. Subtitle documents are
// fetched once and cached, since all three specialists may ask for them.
type reviewContext struct {
	job     *jobs.Job
	fetcher subtitles.Fetcher

	mu     sync.Mutex
	source *string
	target *string
}

func newReviewContext(job *jobs.Job, fetcher subtitles.Fetcher) *reviewContext {
	return &reviewContext{job: job, fetcher: fetcher}
}

func (r *reviewContext) JobInfo(ctx context.Context) (string, error) {
	info := map[string]any{
		"job_key":          r.job.JobKey,
		"source_locale":    r.job.SourceLocale,
		"target_locale":    r.job.TargetLocale,
		"voice_mode":       r.job.VoiceMode,
		"speaker_count":    r.job.SpeakerCount,
		"translation_id":   r.job.TranslationID,
		"iteration_id":     r.job.IterationID,
		"iteration_number": r.job.IterationNumber,
	}
	encoded, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("encode job info: %w", err)
	}
	return string(encoded), nil
}

func (r *reviewContext) SourceSubtitles(ctx context.Context) (string, error) {
	return r.document(ctx, &r.source, r.job.StoredSourcePath, r.job.SourceSubtitleURL)
}

func (r *reviewContext) TargetSubtitles(ctx context.Context) (string, error) {
	return r.document(ctx, &r.target, r.job.StoredTargetPath, r.job.TargetSubtitleURL)
}

func (r *reviewContext) document(ctx context.Context, cache **string, storedPath, url string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if *cache != nil {
		return **cache, nil
	}

	content, err := r.load(ctx, storedPath, url)
	if err != nil {
		return "", err
	}
	*cache = &content
	return content, nil
}

func (r *reviewContext) load(ctx context.Context, storedPath, url string) (string, error) {
	if storedPath != "" {
		// A missing stored copy is recoverable while the external URL
		// still serves the document.
		if raw, err := os.ReadFile(storedPath); err == nil {
			return string(raw), nil
		}
	}
	if url == "" {
		return "", fmt.Errorf("no subtitle source available")
	}
	return r.fetcher.Fetch(ctx, url)
}

func (r *reviewContext) SourceLocale() string { return r.job.SourceLocale }
func (r *reviewContext) TargetLocale() string { return r.job.TargetLocale }
