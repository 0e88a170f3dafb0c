package testsupport

import (
	"context"
	"testing"

	"overdub/internal/config"
	"overdub/internal/jobs"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a job for tests using the provided store.
func NewJob(t testing.TB, store *jobs.Store, source, target string) *jobs.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), jobs.SubmitRequest{
		SourceLocale: source,
		TargetLocale: target,
		MediaURL:     "https://media.example/test.mp4",
	})
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}

// AdvanceTo moves a job forward to the target status, persisting the change.
func AdvanceTo(t testing.TB, store *jobs.Store, job *jobs.Job, target jobs.Status) *jobs.Job {
	t.Helper()

	job.Status = target
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatalf("advance to %s: %v", target, err)
	}
	return job
}
