package steps

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"overdub/internal/review"
	"overdub/internal/testsupport"
)

type fakeReviewRunner struct {
	review review.AggregatedReview
	err    error
}

func (f *fakeReviewRunner) Run(context.Context, review.JobContext) (review.AggregatedReview, error) {
	return f.review, f.err
}

type countingFetcher struct {
	calls   atomic.Int32
	content string
	err     error
}

func (c *countingFetcher) Fetch(context.Context, string) (string, error) {
	c.calls.Add(1)
	return c.content, c.err
}

func TestReviewerPersistsReview(t *testing.T) {
	runner := &fakeReviewRunner{
		review: review.AggregatedReview{
			TranslationScore: 90,
			TechnicalScore:   80,
			CulturalScore:    70,
			OverallScore:     82,
			Recommendation:   review.RecommendApprove,
			IsValid:          true,
			Summary:          "solid work",
			GeneratedAt:      time.Now().UTC(),
		},
	}
	step := NewReviewer(runner, &countingFetcher{}, nil)

	job := urlJob()
	if err := step.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if job.DegradedSteps != 0 {
		t.Fatalf("degraded steps = %d, want 0", job.DegradedSteps)
	}

	var stored review.AggregatedReview
	if err := json.Unmarshal([]byte(job.ReviewJSON), &stored); err != nil {
		t.Fatalf("decode stored review: %v", err)
	}
	if stored.OverallScore != 82 || stored.Recommendation != review.RecommendApprove {
		t.Fatalf("stored review = %+v", stored)
	}
}

func TestReviewerDegradesOnCoordinatorFailure(t *testing.T) {
	runner := &fakeReviewRunner{err: errors.New("llm unreachable")}
	step := NewReviewer(runner, &countingFetcher{}, nil)

	job := urlJob()
	if err := step.Execute(context.Background(), job); err != nil {
		t.Fatalf("review failure must not fail the stage: %v", err)
	}
	if job.DegradedSteps != 1 {
		t.Fatalf("degraded steps = %d, want 1", job.DegradedSteps)
	}
	if job.ReviewJSON != "" {
		t.Fatalf("no review should be stored, got %q", job.ReviewJSON)
	}
}

func TestReviewContextCachesDocuments(t *testing.T) {
	fetcher := &countingFetcher{content: "1\n00:00:01,000 --> 00:00:02,000\nHello\n"}
	job := urlJob()
	job.SourceSubtitleURL = "https://cdn.example/source.srt"
	jobCtx := newReviewContext(job, fetcher)

	for i := 0; i < 3; i++ {
		content, err := jobCtx.SourceSubtitles(context.Background())
		if err != nil {
			t.Fatalf("SourceSubtitles: %v", err)
		}
		if !strings.Contains(content, "Hello") {
			t.Fatalf("unexpected content %q", content)
		}
	}
	if got := fetcher.calls.Load(); got != 1 {
		t.Fatalf("fetch calls = %d, want 1", got)
	}
}

func TestReviewContextPrefersStoredCopy(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stored := filepath.Join(testsupport.BaseDir(cfg), "target.srt")
	testsupport.WriteFile(t, stored, 64)

	fetcher := &countingFetcher{content: "remote"}
	job := urlJob()
	job.StoredTargetPath = stored
	job.TargetSubtitleURL = "https://cdn.example/target.srt"
	jobCtx := newReviewContext(job, fetcher)

	content, err := jobCtx.TargetSubtitles(context.Background())
	if err != nil {
		t.Fatalf("TargetSubtitles: %v", err)
	}
	if content == "remote" {
		t.Fatal("stored copy should win over the external URL")
	}
	if fetcher.calls.Load() != 0 {
		t.Fatal("fetcher should not be consulted when a stored copy exists")
	}
}

func TestReviewContextReportsMissingSource(t *testing.T) {
	jobCtx := newReviewContext(urlJob(), &countingFetcher{})
	if _, err := jobCtx.SourceSubtitles(context.Background()); err == nil {
		t.Fatal("expected an error when no subtitle source exists")
	}
}

func TestReviewContextJobInfo(t *testing.T) {
	job := urlJob()
	job.TranslationID = "tr-key"
	job.IterationID = "it-key-1"
	jobCtx := newReviewContext(job, &countingFetcher{})

	raw, err := jobCtx.JobInfo(context.Background())
	if err != nil {
		t.Fatalf("JobInfo: %v", err)
	}
	var info map[string]any
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		t.Fatalf("decode job info: %v", err)
	}
	if info["source_locale"] != "en-US" || info["translation_id"] != "tr-key" {
		t.Fatalf("job info = %v", info)
	}
	if jobCtx.SourceLocale() != "en-US" || jobCtx.TargetLocale() != "es-MX" {
		t.Fatal("locale accessors disagree with the job")
	}
}
