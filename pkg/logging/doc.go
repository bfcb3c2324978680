// Package logging provides structured logging utilities for millwork components.
//
// # Overview
//
// This package wraps the standard library slog package with millwork defaults
// for consistent logging across the CLI, the daemon and library packages. It
// supports environment-based log level configuration, module/version context
// injection, and source location tracking for debug logs.
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: per-tick state transitions, with source location
//   - INFO: general informational messages (default)
//   - WARN/WARNING: skipped recipe registrations, degraded collaborators
//   - ERROR: failures requiring attention
//
// # Usage
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("millworkd", version)
//	    slog.Info("world started", "machines", n)
//	}
//
// The LOG_LEVEL environment variable controls verbosity:
//
//	LOG_LEVEL=debug millwork simulate --catalog recipes.yaml
//
// All logs are written to stderr in JSON format:
//
//	{"time":"...","level":"WARN","msg":"skipping invalid recipe","module":"millwork","version":"v0.3.0","recipe":"millwork:gravel","error":"[INVALID_RECIPE] time set to zero"}
package logging
