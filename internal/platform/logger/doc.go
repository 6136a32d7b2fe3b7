// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels, and carries request-scoped loggers through context.Context
// so that trace IDs and user IDs follow a request from the router into the stores and
// external clients.
package logger
