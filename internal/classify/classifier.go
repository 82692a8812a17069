package classify

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"

	"collectord/internal/config"
	"collectord/internal/services/llm"
)

// Classifier proposes a label for raw category text. Implementations may
// return text outside the vocabulary; Normalizer deals with that.
type Classifier interface {
	Classify(ctx context.Context, raw string) (string, error)
}

const systemPrompt = `You label short category phrases for a content dataset.
Answer with exactly one word from this list and nothing else:
general, clothing, medical, restaurant, AI, fun, beauty, education, inspirational, other.
The phrase may be in any language. If none of the labels fit, answer "other".`

// LLMClassifier asks a language model to pick a vocabulary label.
type LLMClassifier struct {
	client *llm.Client
}

// NewLLMClassifier builds a classifier backed by the configured model.
func NewLLMClassifier(cfg *config.Config, opts ...llm.Option) *LLMClassifier {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}, opts...)
	return &LLMClassifier{client: client}
}

// Classify returns the model's proposed label for the raw text. The input
// is NFC normalized first so visually identical Unicode spellings produce
// the same prompt.
func (c *LLMClassifier) Classify(ctx context.Context, raw string) (string, error) {
	raw = norm.NFC.String(strings.TrimSpace(raw))
	return c.client.Complete(ctx, systemPrompt, "Category phrase: "+raw)
}
