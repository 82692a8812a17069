package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"collectord/internal/classify"
	"collectord/internal/config"
	"collectord/internal/dateparse"
	"collectord/internal/logging"
	"collectord/internal/notifications"
	"collectord/internal/objectstore"
	"collectord/internal/pipeline"
	"collectord/internal/publisher"
	"collectord/internal/retrieval"
	"collectord/internal/store"
	"collectord/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			OutputPaths: []string{
				"stdout",
				filepath.Join(cfg.Paths.LogDir, "collectord.log"),
			},
		})
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openStore() (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg)
}

// services bundles the fully wired processing components.
type services struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	publisher *publisher.Publisher
	pipeline  *pipeline.Pipeline
	manager   *workflow.Manager
}

func (c *commandContext) buildServices() (*services, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	st, err := c.openStore()
	if err != nil {
		return nil, err
	}

	notifier := notifications.NewService(cfg)
	classifier := classify.NewLLMClassifier(cfg)
	normalizer := classify.NewNormalizer(cfg, classifier, logger)
	pub := publisher.New(cfg, st, normalizer, notifier, logger)

	retriever, err := retrieval.New(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}
	downloader := retrieval.NewDownloader(cfg)
	uploader := objectstore.NewClient(cfg)
	pipe := pipeline.New(cfg, st, retriever, downloader, uploader, notifier, logger)

	manager := workflow.NewManager(cfg, pub, pipe, notifier, logger)

	return &services{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		publisher: pub,
		pipeline:  pipe,
		manager:   manager,
	}, nil
}

func (c *commandContext) dateResolver() (dateparse.Resolver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return dateparse.NewLLMResolver(cfg)
}
