package types

import "errors"

// Error kinds of the retrieval core. Layers wrap these with context and
// callers match them with errors.Is.
var (
	// ErrInvalidConfiguration marks chunker or component misconfiguration.
	// Never retried.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDimensionMismatch is returned when a vector's length does not match
	// the collection's configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCollectionNotFound is returned when writing to or searching a
	// collection that was never created.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrConfigurationConflict is returned when a collection already exists
	// with a different dimension or distance metric.
	ErrConfigurationConflict = errors.New("collection configuration conflict")

	// ErrUnavailable marks a transient backend failure (vector index or
	// embedder unreachable, timed out). Retryable with backoff.
	ErrUnavailable = errors.New("external service unavailable")

	// ErrExtractionFailed is returned when PDF text extraction fails or
	// yields no content.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrInvalidArgument marks malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")
)
