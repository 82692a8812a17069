// Package retrieval fetches referenced media from external sources.
// Two strategies implement the same capability: an actor strategy that
// drives a hosted scraping actor and polls its run, and a direct
// strategy that treats the reference itself as a downloadable location.
// Configuration selects the strategy.
package retrieval
