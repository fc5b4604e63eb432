package driven

import "context"

// Reranker scores (query, document) pairs with a cross-encoder model.
// It only ever reorders or shrinks a candidate set produced by a retrieval
// mode; it never introduces new candidates.
type Reranker interface {
	// Rerank scores every document against the query and returns hits
	// sorted by score descending. Index refers into the documents slice.
	Rerank(ctx context.Context, query string, documents []string) ([]RerankHit, error)

	// Close releases resources.
	Close() error
}

// RerankHit is one reranked candidate.
type RerankHit struct {
	// Index is the position of the document in the input slice.
	Index int

	// Score is the cross-encoder relevance score.
	Score float64
}
