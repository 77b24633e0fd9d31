// Package logging configures structured slog logging for cuse.
// Logs go to stderr by default; with a log file configured (or --debug)
// JSON records are also written to a size-rotated file under ~/.cuse/logs/.
package logging
