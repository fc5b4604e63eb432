package driven

import "context"

// VectorIndex provides dense similarity search keyed by record id.
// The core relies only on "higher score means more similar"; the metric and
// storage format are the adapter's business.
type VectorIndex interface {
	// Add inserts or replaces the vector for the given record id.
	Add(ctx context.Context, id int64, embedding []float32) error

	// Search finds up to limit nearest vectors to the query, best first.
	// A threshold > 0 drops hits scoring below it.
	Search(ctx context.Context, query []float32, limit int, threshold float64) ([]VectorHit, error)

	// Delete removes a vector from the index.
	Delete(ctx context.Context, id int64) error

	// DeleteBatch removes multiple vectors.
	DeleteBatch(ctx context.Context, ids []int64) error

	// Has reports whether a vector exists for the id. Used by the
	// reconciliation pass to detect partial commits.
	Has(ctx context.Context, id int64) (bool, error)

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)

	// Flush persists the index to durable storage.
	Flush() error

	// Close flushes and releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ID is the matched record id.
	ID int64

	// Score is the similarity score (higher is more similar).
	Score float64
}
