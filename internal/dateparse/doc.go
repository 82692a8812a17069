// Package dateparse resolves timestamp tokens supplied by submitters
// into concrete times. Tokens may be absolute ("2024-06-10 12:00:00"),
// date-only, or relative ("2d", "3w"). A language model interprets the
// token against the configured timezone.
package dateparse
