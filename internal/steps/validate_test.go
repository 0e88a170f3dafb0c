package steps

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"overdub/internal/jobs"
	"overdub/internal/services"
	"overdub/internal/testsupport"
)

func urlJob() *jobs.Job {
	return &jobs.Job{
		ID:           1,
		JobKey:       "key",
		SourceLocale: "en-US",
		TargetLocale: "es-MX",
		MediaURL:     "https://media.example/test.mp4",
	}
}

func TestValidatorAcceptsMediaURLJob(t *testing.T) {
	validator := NewValidator(testsupport.NewConfig(t), nil)
	job := urlJob()
	if err := validator.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if job.ResolvedMedia != job.MediaURL {
		t.Fatalf("resolved media = %q, want %q", job.ResolvedMedia, job.MediaURL)
	}
}

func TestValidatorRejectsBothMediaReferences(t *testing.T) {
	validator := NewValidator(testsupport.NewConfig(t), nil)

	job := urlJob()
	job.MediaPath = "movie.mp4"
	err := validator.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("both references: error = %v, want validation", err)
	}

	job = urlJob()
	job.MediaURL = ""
	err = validator.Execute(context.Background(), job)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("no references: error = %v, want validation", err)
	}
}

func TestValidatorRejectsBadLocales(t *testing.T) {
	validator := NewValidator(testsupport.NewConfig(t), nil)

	job := urlJob()
	job.SourceLocale = "not a locale"
	if err := validator.Execute(context.Background(), job); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("bad locale: error = %v, want validation", err)
	}

	job = urlJob()
	job.TargetLocale = job.SourceLocale
	if err := validator.Execute(context.Background(), job); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("same locales: error = %v, want validation", err)
	}
}

func TestValidatorRejectsSpeakerCountOutOfRange(t *testing.T) {
	validator := NewValidator(testsupport.NewConfig(t), nil)
	job := urlJob()
	job.SpeakerCount = maxSpeakerCount + 1
	if err := validator.Execute(context.Background(), job); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestValidatorRejectsNonHTTPMediaURL(t *testing.T) {
	validator := NewValidator(testsupport.NewConfig(t), nil)
	job := urlJob()
	job.MediaURL = "ftp://media.example/test.mp4"
	if err := validator.Execute(context.Background(), job); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestValidatorResolvesRelativeMediaPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	validator := NewValidator(cfg, nil)

	testsupport.WriteFile(t, filepath.Join(cfg.Paths.MediaDir, "movie.mp4"), 1024)
	job := urlJob()
	job.MediaURL = ""
	job.MediaPath = "movie.mp4"

	if err := validator.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := filepath.Join(cfg.Paths.MediaDir, "movie.mp4")
	if job.ResolvedMedia != want {
		t.Fatalf("resolved media = %q, want %q", job.ResolvedMedia, want)
	}
}

func TestValidatorRejectsMissingMediaFile(t *testing.T) {
	validator := NewValidator(testsupport.NewConfig(t), nil)
	job := urlJob()
	job.MediaURL = ""
	job.MediaPath = "missing.mp4"
	if err := validator.Execute(context.Background(), job); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
}
