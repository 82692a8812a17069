package classify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"collectord/internal/config"
	"collectord/internal/logging"
	"collectord/internal/services"
)

// Normalizer turns arbitrary category text into a vocabulary label by
// asking the classifier repeatedly until a valid label comes back. The
// attempt budget is bounded; exhausting it is an error rather than a
// silent fallback so callers decide how to fail.
type Normalizer struct {
	classifier  Classifier
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	sleeper     func(context.Context, time.Duration) error
	logger      *slog.Logger
}

// NewNormalizer builds a normalizer with the configured retry budget.
func NewNormalizer(cfg *config.Config, classifier Classifier, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Normalizer{
		classifier:  classifier,
		maxAttempts: cfg.Classify.MaxAttempts,
		baseDelay:   time.Duration(cfg.Classify.RetryBaseDelayMS) * time.Millisecond,
		maxDelay:    time.Duration(cfg.Classify.RetryMaxDelayMS) * time.Millisecond,
		logger:      logging.NewComponentLogger(logger, "classify"),
	}
}

// Normalize resolves raw text to a vocabulary label. Text that already
// names a label short-circuits without consulting the classifier.
func (n *Normalizer) Normalize(ctx context.Context, raw string) (string, error) {
	if label, ok := Canonical(raw); ok {
		return label, nil
	}

	attempts := n.maxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastAnswer string
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := n.wait(ctx, attempt); err != nil {
				return "", err
			}
		}

		answer, err := n.classifier.Classify(ctx, raw)
		if err != nil {
			n.logger.Warn("classification attempt failed",
				logging.Int("attempt", attempt),
				logging.Error(err))
			lastAnswer = ""
			continue
		}
		if label, ok := Canonical(answer); ok {
			return label, nil
		}
		lastAnswer = answer
		n.logger.Warn("classifier returned out-of-vocabulary label",
			logging.Int("attempt", attempt),
			logging.String("answer", answer))
	}

	detail := fmt.Sprintf("no valid label after %d attempts", attempts)
	if lastAnswer != "" {
		detail = fmt.Sprintf("%s (last answer %q)", detail, lastAnswer)
	}
	return "", services.Wrap(services.ErrClassification, "classify", "normalize", detail, nil)
}

func (n *Normalizer) wait(ctx context.Context, attempt int) error {
	delay := n.baseDelay
	for i := 2; i < attempt; i++ {
		delay *= 2
	}
	if n.maxDelay > 0 && delay > n.maxDelay {
		delay = n.maxDelay
	}
	if delay <= 0 {
		return ctx.Err()
	}
	if n.sleeper != nil {
		return n.sleeper(ctx, delay)
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
