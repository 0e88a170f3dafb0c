package main

import (
	"testing"

	"overdub/internal/testsupport"
)

func TestStatusCommandWorkflowStopped(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.NewJob(t, env.store, "en-US", "es-MX")

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "System Status")
	requireContains(t, out, "Not running")
	requireContains(t, out, "Job Status")
	requireContains(t, out, "Submitted")
}

func TestStatusCommandRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	if err := env.daemon.Start(t.Context()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running")
	requireContains(t, out, "Workflow")
	requireContains(t, out, "Active jobs")
}

func TestStartCommandStartsWorkflow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Daemon started")

	out, _, err = runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	requireContains(t, out, "Daemon already running")
}
