// Package errors provides the structured error type shared by pipegraph
// packages. Each AppError carries a machine-readable code, a human message,
// an HTTP status for the serve command and a retryable hint.
package errors
