package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrMissingAPIKey indicates no generation credential is configured.
	// This is fatal and raised before any document is processed.
	ErrMissingAPIKey = errors.New("generation API key is required")

	// ErrTransport indicates a generation attempt failed at the HTTP layer:
	// non-success status, timeout, or connection error. Retryable.
	ErrTransport = errors.New("transport failure")

	// ErrGenerationFailed indicates all attempts for a document were
	// exhausted. The document degrades to its historical+own tags; the
	// run continues.
	ErrGenerationFailed = errors.New("tag generation failed")

	// ErrRunFailed indicates a run completed but absorbed per-document
	// failures. Used by the CLI to derive a non-zero exit status.
	ErrRunFailed = errors.New("run completed with failures")
)
