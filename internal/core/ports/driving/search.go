package driving

import (
	"context"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
)

// Searcher executes queries against the indexed screenshot corpus.
type Searcher interface {
	// Search routes the query to the appropriate retrieval mode (exact
	// phrase for quoted queries, hybrid fusion otherwise) and returns
	// results ordered by descending relevance.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
