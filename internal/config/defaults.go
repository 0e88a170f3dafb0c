package config

const (
	defaultLogDir                 = "~/.local/share/overdub/logs"
	defaultLibraryDir             = "~/.local/share/overdub/library"
	defaultMediaDir               = "~/.local/share/overdub/media"
	defaultAPIBind                = "127.0.0.1:7731"
	defaultTranslatorBaseURL      = "https://api.example-dub.dev/v1"
	defaultTranslatorTimeout      = 30
	defaultLLMBaseURL             = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel               = "google/gemini-3-flash-preview"
	defaultLLMReferer             = "https://github.com/overdub/overdub"
	defaultLLMTitle               = "Overdub Quality Review"
	defaultLLMTimeoutSeconds      = 60
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultJobPollInterval        = 5
	defaultErrorRetryInterval     = 10
	defaultHeartbeatInterval      = 15
	defaultMaxActiveJobs          = 4
	defaultRetryAttempts          = 3
	defaultRetryBaseDelaySeconds  = 5
	defaultReadinessPollInterval  = 5
	defaultReadinessTimeout       = 15 * 60
	defaultProcessingPollInterval = 30
	defaultProcessingTimeout      = 60 * 60
	defaultApprovalTimeoutHours   = 72
	defaultNotifyRequestTimeout   = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:     defaultLogDir,
			LibraryDir: defaultLibraryDir,
			MediaDir:   defaultMediaDir,
			APIBind:    defaultAPIBind,
		},
		Translator: Translator{
			BaseURL:        defaultTranslatorBaseURL,
			TimeoutSeconds: defaultTranslatorTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Workflow: Workflow{
			JobPollInterval:        defaultJobPollInterval,
			ErrorRetryInterval:     defaultErrorRetryInterval,
			HeartbeatInterval:      defaultHeartbeatInterval,
			MaxActiveJobs:          defaultMaxActiveJobs,
			RetryAttempts:          defaultRetryAttempts,
			RetryBaseDelaySeconds:  defaultRetryBaseDelaySeconds,
			ReadinessPollInterval:  defaultReadinessPollInterval,
			ReadinessTimeout:       defaultReadinessTimeout,
			ProcessingPollInterval: defaultProcessingPollInterval,
			ProcessingTimeout:      defaultProcessingTimeout,
			ApprovalTimeoutHours:   defaultApprovalTimeoutHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Approvals:      true,
			Completion:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
