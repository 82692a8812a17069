// Package bot exposes the intake collector over a chat transport. The
// router understands the /start, /reset and /status commands and forwards
// everything else to the collector as submission material.
package bot
