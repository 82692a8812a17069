package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"collectord/internal/config"
	"collectord/internal/logging"
	"collectord/internal/notifications"
	"collectord/internal/pipeline"
	"collectord/internal/publisher"
)

// PublishPass drains pending records to the remote dataset.
type PublishPass interface {
	RunOnce(ctx context.Context) (publisher.Summary, error)
}

// FulfillPass retrieves and archives records awaiting download.
type FulfillPass interface {
	RunOnce(ctx context.Context) (pipeline.Summary, error)
}

// BatchResult captures the outcome of one processing tick.
type BatchResult struct {
	Published  int
	Fulfilled  int
	Processed  int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Manager runs the publishing and fulfillment passes on a poll interval.
type Manager struct {
	publisher     PublishPass
	pipeline      FulfillPass
	notifier      notifications.Service
	logger        *slog.Logger
	pollInterval  time.Duration
	errorInterval time.Duration

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	lastBatch *BatchResult
}

// NewManager constructs a workflow manager from configuration.
func NewManager(cfg *config.Config, publish PublishPass, fulfill FulfillPass, notifier notifications.Service, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	pollInterval := time.Duration(cfg.Workflow.PollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	errorInterval := time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second
	if errorInterval <= 0 {
		errorInterval = pollInterval
	}
	return &Manager{
		publisher:     publish,
		pipeline:      fulfill,
		notifier:      notifier,
		logger:        logging.NewComponentLogger(logger, "workflow"),
		pollInterval:  pollInterval,
		errorInterval: errorInterval,
	}
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the background loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastBatch returns a copy of the most recent batch result, or nil when no
// batch has completed yet.
func (m *Manager) LastBatch() *BatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastBatch == nil {
		return nil
	}
	batch := *m.lastBatch
	return &batch
}

// LastError returns the most recent pass failure, or nil.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	for {
		interval := m.pollInterval
		if err := m.RunBatch(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			interval = m.errorInterval
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// RunBatch executes one publishing pass followed by one fulfillment pass.
func (m *Manager) RunBatch(ctx context.Context) error {
	batch := BatchResult{StartedAt: time.Now()}

	pubSummary, pubErr := m.publisher.RunOnce(ctx)
	batch.Published = pubSummary.Published
	batch.Failed += pubSummary.Failed
	if pubErr != nil {
		m.logger.Error("publishing pass failed", logging.Error(pubErr))
	}

	pipeSummary, pipeErr := m.pipeline.RunOnce(ctx)
	batch.Fulfilled = pipeSummary.Downloaded
	batch.Processed = pipeSummary.Processed
	batch.Failed += pipeSummary.Failed
	if pipeErr != nil {
		m.logger.Error("fulfillment pass failed", logging.Error(pipeErr))
	}

	batch.FinishedAt = time.Now()
	err := errors.Join(pubErr, pipeErr)

	m.mu.Lock()
	m.lastErr = err
	m.lastBatch = &batch
	m.mu.Unlock()

	if batchDidWork(batch) {
		m.logger.Info("batch completed",
			logging.Int("published", batch.Published),
			logging.Int("fulfilled", batch.Fulfilled),
			logging.Int("processed", batch.Processed),
			logging.Int("failed", batch.Failed),
			logging.Duration("duration", batch.FinishedAt.Sub(batch.StartedAt)))
		if notifyErr := m.notifier.NotifyBatchCompleted(ctx, batch.Published,
			batch.Fulfilled, batch.Failed, batch.FinishedAt.Sub(batch.StartedAt)); notifyErr != nil {
			m.logger.Warn("batch notification failed", logging.Error(notifyErr))
		}
	}
	return err
}

func batchDidWork(batch BatchResult) bool {
	return batch.Published > 0 || batch.Fulfilled > 0 || batch.Processed > 0 || batch.Failed > 0
}
