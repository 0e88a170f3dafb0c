package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"overdub/internal/api"
	"overdub/internal/approvals"
	"overdub/internal/config"
	"overdub/internal/daemon"
	"overdub/internal/ipc"
	"overdub/internal/jobs"
	"overdub/internal/logging"
	"overdub/internal/stage"
	"overdub/internal/testsupport"
	"overdub/internal/workflow"
)

type noopStage struct{ name string }

func (h noopStage) Prepare(context.Context, *jobs.Job) error { return nil }
func (h noopStage) Execute(context.Context, *jobs.Job) error { return nil }
func (h noopStage) HealthCheck(context.Context) stage.Health { return stage.Healthy(h.name) }

type cliTestEnv struct {
	cfg        *config.Config
	store      *jobs.Store
	hub        *approvals.Hub
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""

	configPath := filepath.Join(homeDir, ".config", "overdub", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)
	hub := approvals.NewHub()

	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger, workflow.StageSet{
		Validator:          noopStage{"validate"},
		TranslationCreator: noopStage{"create-translation"},
		ReadinessWaiter:    noopStage{"await-readiness"},
		IterationCreator:   noopStage{"create-iteration"},
		ProcessingWaiter:   noopStage{"process-iteration"},
		OutputCopier:       noopStage{"copy-outputs"},
		Reviewer:           noopStage{"run-review"},
		ApprovalGate:       noopStage{"approval-gate"},
	})
	service := api.NewService(store, hub)

	d, err := daemon.New(cfg, store, logger, mgr, service)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		store:      store,
		hub:        hub,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nlog_dir = %q\nlibrary_dir = %q\nmedia_dir = %q\napi_bind = %q\n",
		cfg.Paths.LogDir,
		cfg.Paths.LibraryDir,
		cfg.Paths.MediaDir,
		cfg.Paths.APIBind,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
