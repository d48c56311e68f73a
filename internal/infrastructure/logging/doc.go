// Package logging provides structured logging for the HomeStar hub.
//
// This package wraps Go's standard log/slog package so that every component
// logs with the same handler, level and default fields.
//
// # Features
//
//   - JSON output for production, text output for development
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
// Logging is configured from the "logging" section of the configuration tree:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// It can be changed per run with command-line tokens:
//
//	homestar run logging/level=debug logging/format=text
//
// # Usage
//
//	logger := logging.New(tree.Logging(), version)
//	logger.Info("listening", "url", tree.String("webserver/url"))
//
// # Security
//
// Never log anything under the "secrets" or "keys" namespaces.
package logging
