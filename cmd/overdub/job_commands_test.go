package main

import (
	"context"
	"testing"

	"overdub/internal/jobs"
	"overdub/internal/testsupport"
)

func TestSubmitAndList(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"submit",
		"--source", "en-US",
		"--target", "es-MX",
		"--media-url", "https://media.example/feature.mp4",
	}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	requireContains(t, out, "Submitted job 1")
	requireContains(t, out, "en-US -> es-MX")

	out, _, err = runCLI(t, []string{"jobs", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "Submitted")
	requireContains(t, out, "en-US -> es-MX")
}

func TestSubmitRequiresMediaReference(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{
		"submit",
		"--source", "en-US",
		"--target", "es-MX",
	}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected submit without media reference to fail")
	}
}

func TestJobsStatsAndRetry(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	job := testsupport.NewJob(t, env.store, "en-US", "de-DE")
	job.SetFailed("boom")
	if err := env.store.Update(ctx, job); err != nil {
		t.Fatalf("update: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs", "stats"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs stats: %v", err)
	}
	requireContains(t, out, "Failed")

	out, _, err = runCLI(t, []string{"jobs", "retry"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs retry: %v", err)
	}
	requireContains(t, out, "Retrying 1 job(s)")

	updated, err := env.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if updated.Status != jobs.StatusSubmitted {
		t.Fatalf("expected submitted, got %s", updated.Status)
	}
}

func TestShowJobDetails(t *testing.T) {
	env := setupCLITestEnv(t)

	job := testsupport.NewJob(t, env.store, "en-US", "fr-FR")

	out, _, err := runCLI(t, []string{"show", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, job.JobKey)
	requireContains(t, out, "en-US")
	requireContains(t, out, "fr-FR")

	if _, _, err := runCLI(t, []string{"show", "999"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected show of missing job to fail")
	}
}

func TestApproveDeliversDecision(t *testing.T) {
	env := setupCLITestEnv(t)

	job := testsupport.NewJob(t, env.store, "en-US", "ja-JP")
	testsupport.AdvanceTo(t, env.store, job, jobs.StatusPendingApproval)

	decisions, cancel := env.hub.Register(job.ID)
	defer cancel()

	out, _, err := runCLI(t, []string{"approve", "1", "--reviewer", "qa"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	requireContains(t, out, "Approved job 1")

	decision := <-decisions
	if !decision.Approved || decision.Reviewer != "qa" {
		t.Fatalf("decision = %+v", decision)
	}
}

func TestRejectDeliversDecision(t *testing.T) {
	env := setupCLITestEnv(t)

	job := testsupport.NewJob(t, env.store, "en-US", "it-IT")
	testsupport.AdvanceTo(t, env.store, job, jobs.StatusPendingApproval)

	decisions, cancel := env.hub.Register(job.ID)
	defer cancel()

	out, _, err := runCLI(t, []string{"reject", "1", "--reviewer", "qa", "--reason", "lip sync drift"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	requireContains(t, out, "Rejected job 1")

	decision := <-decisions
	if decision.Approved {
		t.Fatalf("decision = %+v", decision)
	}
	if decision.Reason != "lip sync drift" {
		t.Fatalf("reason = %q", decision.Reason)
	}
}

func TestApproveRequiresPendingJob(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.NewJob(t, env.store, "en-US", "ko-KR")

	if _, _, err := runCLI(t, []string{"approve", "1", "--reviewer", "qa"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected approval of non-pending job to fail")
	}
}
