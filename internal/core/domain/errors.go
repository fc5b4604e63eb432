package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyContent indicates a file produced no indexable text: the
	// combined visual description and extracted text is empty after
	// trimming. The file is not written to any store.
	ErrEmptyContent = errors.New("no indexable content")

	// ErrNoEmbedding indicates the embedding provider returned no vector.
	// The file is aborted without writes and stays eligible for retry.
	ErrNoEmbedding = errors.New("embedding unavailable")

	// ErrProviderUnavailable indicates a model provider could not be
	// reached or returned a server error. Transient; the file stays
	// eligible for the next indexing pass.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrPartialCommit indicates a commit sequence failed after its first
	// store write succeeded. The record is detectable by a reconciliation
	// pass (content store row without a matching dense index entry) and
	// must be repaired, not treated as a crash.
	ErrPartialCommit = errors.New("partial commit")

	// ErrDimensionMismatch indicates a vector's length does not match the
	// dense index's configured dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
