// Package logger provides structured logging for respkv.
//
// This package wraps log/slog:
//
//   - logger.go: Logger interface, configuration and the global default
//   - context.go: context-aware logging with connection IDs
//   - redact.go: masking of stored values in log attributes
//
// Features:
//
//   - JSON and text output formats
//   - Log level filtering with runtime adjustment (SetLevel)
//   - Values written by clients never reach the log output
package logger
