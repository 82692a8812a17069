package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"collectord/internal/intake"
	"collectord/internal/logging"
	"collectord/internal/services"
	"collectord/internal/store"
)

// Transport sends replies back to a submitter on the chat platform.
type Transport interface {
	Send(ctx context.Context, submitterID int64, text string) error
}

// Message is one inbound chat message.
type Message struct {
	SubmitterID   int64
	SubmitterName string
	Text          string
}

const welcomeText = `Hello! Send me two messages:
1. A URL
2. A descriptor: date,category1/category2/...[,description]

Supported date tokens: 2h, 3d, 1w, 4m, 1y or a calendar date.
Example: 2d,Technology/Computer Science,an amazing clip

I process them automatically once I have both.
Use /reset to clear pending messages, /status to check them.`

// Router dispatches inbound messages to commands or the intake collector.
type Router struct {
	collector *intake.Collector
	transport Transport
	logger    *slog.Logger
}

// NewRouter builds a router over the given collector and transport.
func NewRouter(collector *intake.Collector, transport Transport, logger *slog.Logger) *Router {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Router{
		collector: collector,
		transport: transport,
		logger:    logging.NewComponentLogger(logger, "bot"),
	}
}

// Handle processes one inbound message and sends the appropriate reply.
func (r *Router) Handle(ctx context.Context, msg Message) error {
	text := strings.TrimSpace(msg.Text)
	switch command(text) {
	case "/start":
		return r.reply(ctx, msg.SubmitterID, welcomeText)
	case "/reset":
		r.collector.Reset(msg.SubmitterID)
		return r.reply(ctx, msg.SubmitterID,
			"Your pending messages have been cleared. Send me two new messages!")
	case "/status":
		return r.replyStatus(ctx, msg.SubmitterID)
	case "":
		return r.handleSubmission(ctx, msg, text)
	default:
		return r.reply(ctx, msg.SubmitterID,
			"Unknown command. Try /start, /reset or /status.")
	}
}

func (r *Router) handleSubmission(ctx context.Context, msg Message, text string) error {
	result, err := r.collector.OnMessage(ctx, msg.SubmitterID, msg.SubmitterName, text)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return r.reply(ctx, msg.SubmitterID,
				fmt.Sprintf("Error: %v\n\nUse /reset to start over", err))
		}
		r.logger.Error("submission handling failed",
			logging.Int64("submitter_id", msg.SubmitterID),
			logging.Error(err))
		return r.reply(ctx, msg.SubmitterID,
			"Something went wrong saving your submission. Please try again later.")
	}

	if result.Outcome == intake.OutcomeBuffered {
		return r.reply(ctx, msg.SubmitterID, "Got it! Send me the second message.")
	}
	return r.reply(ctx, msg.SubmitterID, fmt.Sprintf(
		"Data saved successfully!\n\nURL: %s\nDate: %s\nCategories: %s\nDescription: %s",
		result.Reference,
		result.RecordedAt.Format(store.RecordedAtLayout),
		strings.Join(result.Categories, "/"),
		result.Description))
}

func (r *Router) replyStatus(ctx context.Context, submitterID int64) error {
	switch count := r.collector.Buffered(submitterID); count {
	case 0:
		return r.reply(ctx, submitterID,
			"No pending messages. Send me a URL or a descriptor message!")
	case 1:
		return r.reply(ctx, submitterID,
			"You have 1 pending message. Send me one more!")
	default:
		return r.reply(ctx, submitterID,
			fmt.Sprintf("You have %d pending messages.", count))
	}
}

func (r *Router) reply(ctx context.Context, submitterID int64, text string) error {
	if err := r.transport.Send(ctx, submitterID, text); err != nil {
		r.logger.Warn("sending reply failed",
			logging.Int64("submitter_id", submitterID),
			logging.Error(err))
		return err
	}
	return nil
}

// command returns the leading slash command in lower case, or "" when the
// text is submission material.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
