// Package classify maps free-form category text onto the fixed label
// vocabulary used by the dataset. A language model performs the mapping
// and a normalizer retries until a valid label comes back or the retry
// budget runs out.
package classify
