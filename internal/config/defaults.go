package config

const (
	defaultDataDir              = "~/.local/share/collectord"
	defaultStagingDir           = "~/.local/share/collectord/downloads"
	defaultLogDir               = "~/.local/share/collectord/logs"
	defaultLLMBaseURL           = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "openai/gpt-4.1-mini"
	defaultLLMTimeoutSeconds    = 30
	defaultRetrievalStrategy    = "actor"
	defaultRetrievalBaseURL     = "https://api.apify.com/v2"
	defaultRetrievalActorID     = "9JaThuZFzYiFtPXpc"
	defaultRetrievalTimeout     = 120
	defaultDownloadTimeout      = 300
	defaultPollIntervalMillis   = 2000
	defaultPacingSeconds        = 8
	defaultStorageBaseURL       = "https://pixoform.com/api/v1/main"
	defaultStorageTimeout       = 120
	defaultDatasetTimeout       = 30
	defaultIntakeTimezone       = "Asia/Tehran"
	defaultClassifyMaxAttempts  = 5
	defaultClassifyBaseDelayMS  = 500
	defaultClassifyMaxDelayMS   = 8000
	defaultNotifyTimeout        = 10
	defaultPollInterval         = 60
	defaultErrorRetryInterval   = 15
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Retrieval: Retrieval{
			Strategy:           defaultRetrievalStrategy,
			ActorID:            defaultRetrievalActorID,
			BaseURL:            defaultRetrievalBaseURL,
			RequestTimeout:     defaultRetrievalTimeout,
			DownloadTimeout:    defaultDownloadTimeout,
			PollIntervalMillis: defaultPollIntervalMillis,
			PacingSeconds:      defaultPacingSeconds,
		},
		Storage: Storage{
			BaseURL:        defaultStorageBaseURL,
			RequestTimeout: defaultStorageTimeout,
		},
		Dataset: Dataset{
			RequestTimeout: defaultDatasetTimeout,
		},
		Intake: Intake{
			Timezone: defaultIntakeTimezone,
		},
		Classify: Classify{
			MaxAttempts:      defaultClassifyMaxAttempts,
			RetryBaseDelayMS: defaultClassifyBaseDelayMS,
			RetryMaxDelayMS:  defaultClassifyMaxDelayMS,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Published:      true,
			Batches:        true,
			Errors:         true,
		},
		Workflow: Workflow{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
