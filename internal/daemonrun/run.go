// Package daemonrun assembles and runs the overdub daemon process.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"overdub/internal/api"
	"overdub/internal/approvals"
	"overdub/internal/config"
	"overdub/internal/daemon"
	"overdub/internal/ipc"
	"overdub/internal/jobs"
	"overdub/internal/logging"
	"overdub/internal/notifications"
	"overdub/internal/outputs"
	"overdub/internal/review"
	"overdub/internal/services/agents"
	"overdub/internal/services/translator"
	"overdub/internal/steps"
	"overdub/internal/subtitles"
	"overdub/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the overdub daemon runtime loop and blocks until shutdown.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("overdubd-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:    level,
		Format:   cfg.Logging.Format,
		FilePath: logPath,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update overdubd.log link: %v\n", err)
	}
	logServiceSnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, "overdubd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	hub := approvals.NewHub()
	pool := agents.NewPool(agents.NewClient(cfg.LLM))

	stageSet := steps.NewStageSet(cfg, steps.Deps{
		Translator:  translator.NewClient(cfg),
		Copier:      outputs.NewCopier(cfg, logger),
		Coordinator: review.NewCoordinator(pool, logger),
		Fetcher:     subtitles.NewHTTPFetcher(),
		Hub:         hub,
		Notifier:    notifier,
	}, logger)

	manager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier, stageSet)
	service := api.NewService(store, hub)

	d, err := daemon.New(cfg, store, logger, manager, service)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and job database access"))
	}

	<-signalCtx.Done()
	logger.Info("overdub daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "overdubd.current.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logServiceSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("service snapshot",
		logging.String(logging.FieldEventType, "service_snapshot"),
		logging.String("translator_base_url", cfg.Translator.BaseURL),
		logging.Bool("translator_key_present", strings.TrimSpace(cfg.Translator.APIKey) != ""),
		logging.String("llm_model", cfg.LLM.Model),
		logging.Bool("llm_key_present", strings.TrimSpace(cfg.LLM.APIKey) != ""),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.Bool("http_api_enabled", strings.TrimSpace(cfg.Paths.APIBind) != ""))
}
