// Package logging provides structured logging configuration for stubmatch.
//
// This package wraps log/slog so every component logs the same way. The
// registry and the engine accept a *slog.Logger through options and fall back
// to Nop() when none is given.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatJSON,
//	})
//
//	logger.Info("registered matcher extension", "name", "path-contains-param")
//
// # Output Formats
//
//   - Text: human-readable, the default
//   - JSON: one object per line, for log aggregation
//
// Tee sends the same records to a second handler, e.g. a JSON log file next
// to text output on stderr.
package logging
