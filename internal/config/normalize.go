package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranslator()
	c.normalizeLLM()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		c.Paths.LibraryDir = defaultLibraryDir
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.MediaDir) == "" {
		c.Paths.MediaDir = defaultMediaDir
	}
	if c.Paths.MediaDir, err = expandPath(c.Paths.MediaDir); err != nil {
		return fmt.Errorf("paths.media_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeTranslator() {
	c.Translator.BaseURL = strings.TrimSpace(c.Translator.BaseURL)
	if c.Translator.BaseURL == "" {
		c.Translator.BaseURL = defaultTranslatorBaseURL
	}
	c.Translator.APIKey = strings.TrimSpace(c.Translator.APIKey)
	if c.Translator.APIKey == "" {
		if value, ok := os.LookupEnv("OVERDUB_TRANSLATOR_API_KEY"); ok {
			c.Translator.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Translator.TimeoutSeconds <= 0 {
		c.Translator.TimeoutSeconds = defaultTranslatorTimeout
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OVERDUB_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeWorkflow() {
	w := &c.Workflow
	if w.JobPollInterval <= 0 {
		w.JobPollInterval = defaultJobPollInterval
	}
	if w.ErrorRetryInterval <= 0 {
		w.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if w.HeartbeatInterval <= 0 {
		w.HeartbeatInterval = defaultHeartbeatInterval
	}
	if w.MaxActiveJobs <= 0 {
		w.MaxActiveJobs = defaultMaxActiveJobs
	}
	if w.RetryAttempts <= 0 {
		w.RetryAttempts = defaultRetryAttempts
	}
	if w.RetryBaseDelaySeconds <= 0 {
		w.RetryBaseDelaySeconds = defaultRetryBaseDelaySeconds
	}
	if w.ReadinessPollInterval <= 0 {
		w.ReadinessPollInterval = defaultReadinessPollInterval
	}
	if w.ReadinessTimeout <= 0 {
		w.ReadinessTimeout = defaultReadinessTimeout
	}
	if w.ProcessingPollInterval <= 0 {
		w.ProcessingPollInterval = defaultProcessingPollInterval
	}
	if w.ProcessingTimeout <= 0 {
		w.ProcessingTimeout = defaultProcessingTimeout
	}
	if w.ApprovalTimeoutHours <= 0 {
		w.ApprovalTimeoutHours = defaultApprovalTimeoutHours
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
