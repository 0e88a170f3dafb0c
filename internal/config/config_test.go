package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"overdub/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatalf("expected exists=false for %s", path)
	}
	if cfg.Workflow.RetryAttempts != 3 {
		t.Fatalf("expected default retry attempts, got %d", cfg.Workflow.RetryAttempts)
	}
	if cfg.Workflow.ApprovalTimeoutHours != 72 {
		t.Fatalf("expected default approval window, got %d", cfg.Workflow.ApprovalTimeoutHours)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected console format, got %q", cfg.Logging.Format)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
log_dir = "` + filepath.Join(dir, "logs") + `"

[translator]
base_url = "  https://translate.test/v1  "

[workflow]
readiness_poll_interval = 2
readiness_timeout = 60

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if cfg.Translator.BaseURL != "https://translate.test/v1" {
		t.Fatalf("base url not trimmed: %q", cfg.Translator.BaseURL)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format not lowered: %q", cfg.Logging.Format)
	}
	if cfg.Workflow.ReadinessPollInterval != 2 {
		t.Fatalf("readiness poll interval: %d", cfg.Workflow.ReadinessPollInterval)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.Workflow.ReadinessPollInterval = 100
	cfg.Workflow.ReadinessTimeout = 10
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected poll interval > timeout to fail validation")
	}

	cfg = config.Default()
	cfg.Logging.Format = "yaml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown log format to fail validation")
	}
}

func TestTranslatorKeyFromEnv(t *testing.T) {
	t.Setenv("OVERDUB_TRANSLATOR_API_KEY", "secret-key")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Translator.APIKey != "secret-key" {
		t.Fatalf("expected env key, got %q", cfg.Translator.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[translator]") {
		t.Fatal("sample config missing translator section")
	}
}
