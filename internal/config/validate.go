package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranslator(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranslator() error {
	if c.Translator.BaseURL == "" {
		return errors.New("translator.base_url must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	w := c.Workflow
	if w.ReadinessPollInterval > w.ReadinessTimeout {
		return errors.New("workflow.readiness_poll_interval must not exceed workflow.readiness_timeout")
	}
	if w.ProcessingPollInterval > w.ProcessingTimeout {
		return errors.New("workflow.processing_poll_interval must not exceed workflow.processing_timeout")
	}
	if w.RetryAttempts > 10 {
		return fmt.Errorf("workflow.retry_attempts %d is unreasonably high (max 10)", w.RetryAttempts)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must not be negative")
	}
	return nil
}
