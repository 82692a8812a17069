package retrieval

import (
	"context"
	"fmt"

	"collectord/internal/config"
	"collectord/internal/services"
)

// Status reports how a retrieval concluded.
type Status string

const (
	// StatusSucceeded means retrieval finished and a direct location may exist.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means retrieval did not complete.
	StatusFailed Status = "failed"
)

// Result describes the outcome of one retrieval attempt.
type Result struct {
	Status         Status
	DirectLocation string
	JobID          string
	DatasetID      string
	ResultCount    int
}

// Retriever resolves a reference into downloadable media. A succeeded
// result without a direct location means the external side processed the
// media asynchronously and no local artifact can be produced.
type Retriever interface {
	Retrieve(ctx context.Context, reference string) (Result, error)
}

// New selects the configured retrieval strategy.
func New(cfg *config.Config) (Retriever, error) {
	switch cfg.Retrieval.Strategy {
	case "actor":
		return NewActorRetriever(cfg), nil
	case "direct":
		return NewDirectRetriever(cfg), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "retrieval", "select strategy",
			fmt.Sprintf("unknown retrieval strategy %q", cfg.Retrieval.Strategy), nil)
	}
}
