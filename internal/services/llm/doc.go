// Package llm wraps the chat-completions API that backs the text
// classification and date-resolution capabilities.
//
// The model is prompted to answer with a single bare token or datetime, so
// Complete returns trimmed plain text rather than structured JSON. Transient
// failures (timeouts, HTTP 429/5xx) are retried with exponential backoff.
package llm
