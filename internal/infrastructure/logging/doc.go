// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Every entry carries service=flowgallery. Subsystems get named children
// through Component, so entries read "logger":"gallery" or "logger":"flowstore".
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	defer logger.Sync()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Component("gallery").Warn("fetch failed", zap.Error(err))
package logging
