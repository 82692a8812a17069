package intake

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"collectord/internal/dateparse"
	"collectord/internal/logging"
	"collectord/internal/services"
	"collectord/internal/store"
)

// PlaceholderDescription fills in when a descriptor omits the free-text part.
const PlaceholderDescription = "No description has been provided"

// Outcome reports what handling a message did.
type Outcome int

const (
	// OutcomeBuffered means the message was stored and a second one is awaited.
	OutcomeBuffered Outcome = iota
	// OutcomeAccepted means the buffered pair evaluated into stored records.
	OutcomeAccepted
)

// Result describes an accepted submission.
type Result struct {
	Outcome     Outcome
	Reference   string
	RecordedAt  time.Time
	Categories  []string
	Description string
}

type session struct {
	mu       sync.Mutex
	messages []string
}

// Collector buffers two messages per submitter and converts complete pairs
// into pending records.
type Collector struct {
	store    *store.Store
	resolver dateparse.Resolver
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[int64]*session
}

// NewCollector builds a collector writing through the supplied store.
func NewCollector(st *store.Store, resolver dateparse.Resolver, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Collector{
		store:    st,
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, "intake"),
		now:      time.Now,
		sessions: make(map[int64]*session),
	}
}

func (c *Collector) session(submitterID int64) *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[submitterID]
	if !ok {
		s = &session{}
		c.sessions[submitterID] = s
	}
	return s
}

// OnMessage handles one inbound message for the submitter. The first message
// of a pair is buffered; the second triggers evaluation. Evaluation always
// clears the buffer, so a failed pair never taints a later one.
func (c *Collector) OnMessage(ctx context.Context, submitterID int64, submitterName, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, services.Wrap(services.ErrValidation, "intake", "message",
			"empty message", nil)
	}

	s := c.session(submitterID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, text)
	if len(s.messages) < 2 {
		return Result{Outcome: OutcomeBuffered}, nil
	}

	first, second := s.messages[0], s.messages[1]
	s.messages = nil

	result, err := c.evaluate(ctx, submitterID, submitterName, first, second)
	if err != nil {
		c.logger.Warn("submission rejected",
			logging.Int64("submitter_id", submitterID),
			logging.Error(err))
		return Result{}, err
	}
	c.logger.Info("submission accepted",
		logging.Int64("submitter_id", submitterID),
		logging.String("reference", result.Reference),
		logging.Int("categories", len(result.Categories)))
	return result, nil
}

// Reset discards any buffered message for the submitter.
func (c *Collector) Reset(submitterID int64) {
	s := c.session(submitterID)
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
}

// Buffered reports how many messages the submitter currently has buffered.
func (c *Collector) Buffered(submitterID int64) int {
	s := c.session(submitterID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (c *Collector) evaluate(ctx context.Context, submitterID int64, submitterName, first, second string) (Result, error) {
	var reference, descriptor string
	switch {
	case isReference(first) && isReference(second):
		return Result{}, services.Wrap(services.ErrValidation, "intake", "evaluate",
			"received two URLs, expected one URL and one descriptor", nil)
	case isReference(first):
		reference, descriptor = first, second
	case isReference(second):
		reference, descriptor = second, first
	default:
		return Result{}, services.Wrap(services.ErrValidation, "intake", "evaluate",
			"received no URL, expected one URL and one descriptor", nil)
	}

	parsed, err := parseDescriptor(descriptor)
	if err != nil {
		return Result{}, err
	}

	recordedAt, err := c.resolver.Resolve(ctx, parsed.dateToken, c.now())
	if err != nil {
		return Result{}, fmt.Errorf("resolve submission date: %w", err)
	}

	for _, category := range parsed.categories {
		record := &store.Record{
			SubmitterID:    submitterID,
			SubmitterName:  submitterName,
			Category:       category,
			Reference:      reference,
			RecordedAt:     recordedAt,
			Description:    parsed.description,
			UploadStatus:   store.UploadStatusNotUploaded,
			DownloadStatus: store.DownloadStatusNotDownloaded,
		}
		if err := c.store.Upsert(ctx, record); err != nil {
			return Result{}, fmt.Errorf("store submission for category %q: %w", category, err)
		}
	}

	return Result{
		Outcome:     OutcomeAccepted,
		Reference:   reference,
		RecordedAt:  recordedAt,
		Categories:  parsed.categories,
		Description: parsed.description,
	}, nil
}

type descriptor struct {
	dateToken   string
	categories  []string
	description string
}

func parseDescriptor(text string) (descriptor, error) {
	parts := strings.SplitN(text, ",", 3)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return descriptor{}, services.Wrap(services.ErrValidation, "intake", "parse descriptor",
			fmt.Sprintf("descriptor %q is not date,categories[,description]", text), nil)
	}

	var categories []string
	for _, category := range strings.Split(parts[1], "/") {
		category = strings.TrimSpace(category)
		if category != "" {
			categories = append(categories, category)
		}
	}
	if len(categories) == 0 {
		return descriptor{}, services.Wrap(services.ErrValidation, "intake", "parse descriptor",
			"descriptor names no categories", nil)
	}

	description := PlaceholderDescription
	if len(parts) == 3 && parts[2] != "" {
		description = parts[2]
	}

	return descriptor{
		dateToken:   parts[0],
		categories:  categories,
		description: description,
	}, nil
}

func isReference(text string) bool {
	parsed, err := url.Parse(text)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
