// Package logger provides structured logging for snapback.
//
// It wraps log/slog with:
//
//   - logger.go: handler construction, dynamic level, package defaults
//   - context.go: context-carried loggers with request and trace IDs
//   - redact.go: secret redaction and optional entity identity masking
package logger
