package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRetrieval()
	c.normalizeLLM()
	c.normalizeIntake()
	c.normalizeClassify()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = ExpandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRetrieval() {
	c.Retrieval.Strategy = strings.ToLower(strings.TrimSpace(c.Retrieval.Strategy))
	if c.Retrieval.Strategy == "" {
		c.Retrieval.Strategy = defaultRetrievalStrategy
	}
	c.Retrieval.BaseURL = strings.TrimRight(strings.TrimSpace(c.Retrieval.BaseURL), "/")
	if c.Retrieval.BaseURL == "" {
		c.Retrieval.BaseURL = defaultRetrievalBaseURL
	}
	if c.Retrieval.RequestTimeout <= 0 {
		c.Retrieval.RequestTimeout = defaultRetrievalTimeout
	}
	if c.Retrieval.DownloadTimeout <= 0 {
		c.Retrieval.DownloadTimeout = defaultDownloadTimeout
	}
	if c.Retrieval.PollIntervalMillis <= 0 {
		c.Retrieval.PollIntervalMillis = defaultPollIntervalMillis
	}
	if c.Retrieval.PacingSeconds < 0 {
		c.Retrieval.PacingSeconds = defaultPacingSeconds
	}
	c.Storage.BaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.BaseURL), "/")
	if c.Storage.RequestTimeout <= 0 {
		c.Storage.RequestTimeout = defaultStorageTimeout
	}
	if c.Dataset.RequestTimeout <= 0 {
		c.Dataset.RequestTimeout = defaultDatasetTimeout
	}
}

func (c *Config) normalizeLLM() {
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

func (c *Config) normalizeIntake() {
	c.Intake.Timezone = strings.TrimSpace(c.Intake.Timezone)
	if c.Intake.Timezone == "" {
		c.Intake.Timezone = defaultIntakeTimezone
	}
}

func (c *Config) normalizeClassify() {
	if c.Classify.MaxAttempts <= 0 {
		c.Classify.MaxAttempts = defaultClassifyMaxAttempts
	}
	if c.Classify.RetryBaseDelayMS <= 0 {
		c.Classify.RetryBaseDelayMS = defaultClassifyBaseDelayMS
	}
	if c.Classify.RetryMaxDelayMS < c.Classify.RetryBaseDelayMS {
		c.Classify.RetryMaxDelayMS = defaultClassifyMaxDelayMS
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollInterval <= 0 {
		c.Workflow.PollInterval = defaultPollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
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
