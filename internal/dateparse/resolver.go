package dateparse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"collectord/internal/config"
	"collectord/internal/services"
	"collectord/internal/services/llm"
)

// Layout is the timestamp format records carry.
const Layout = "2006-01-02 15:04:05"

// Resolver turns a submitter-supplied timestamp token into a concrete time.
type Resolver interface {
	Resolve(ctx context.Context, token string, now time.Time) (time.Time, error)
}

const resolverPrompt = `You convert timestamp tokens into absolute timestamps.
The token is either an absolute timestamp, a date, or a relative offset such as
"2h" (hours), "3d" (days), "1w" (weeks), "4m" (months) or "1y" (years) counted
backwards from the current time. Answer with exactly one timestamp in the
format YYYY-MM-DD HH:MM:SS and nothing else. Missing time-of-day components
default to 00:00:00.`

// LLMResolver asks a language model to interpret the token.
type LLMResolver struct {
	client   *llm.Client
	location *time.Location
}

// NewLLMResolver builds a resolver for the configured timezone.
func NewLLMResolver(cfg *config.Config, opts ...llm.Option) (*LLMResolver, error) {
	location, err := time.LoadLocation(cfg.Intake.Timezone)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "dateparse", "load timezone",
			fmt.Sprintf("unknown timezone %q", cfg.Intake.Timezone), err)
	}
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}, opts...)
	return &LLMResolver{client: client, location: location}, nil
}

// Resolve interprets the token relative to now in the resolver's timezone.
func (r *LLMResolver) Resolve(ctx context.Context, token string, now time.Time) (time.Time, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, services.Wrap(services.ErrValidation, "dateparse", "resolve",
			"empty timestamp token", nil)
	}

	userPrompt := fmt.Sprintf("Current time: %s\nToken: %s",
		now.In(r.location).Format(Layout), token)
	answer, err := r.client.Complete(ctx, resolverPrompt, userPrompt)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve timestamp token: %w", err)
	}

	resolved, err := time.ParseInLocation(Layout, strings.TrimSpace(answer), r.location)
	if err != nil {
		return time.Time{}, services.Wrap(services.ErrValidation, "dateparse", "resolve",
			fmt.Sprintf("model returned unparseable timestamp %q", answer), err)
	}
	return resolved, nil
}
