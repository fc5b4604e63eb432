package domain

// SearchMode identifies which retrieval strategy produced a result.
type SearchMode string

const (
	// SearchModeExact is the quoted-query lexical phrase search.
	SearchModeExact SearchMode = "exact"

	// SearchModeDense is vector similarity search only.
	SearchModeDense SearchMode = "dense"

	// SearchModeSparse is BM25 lexical ranking only.
	SearchModeSparse SearchMode = "sparse"

	// SearchModeHybrid is the weighted fusion of sparse and dense scores.
	SearchModeHybrid SearchMode = "hybrid"
)

// WithRerank marks a mode as refined by the cross-encoder reranker.
func (m SearchMode) WithRerank() SearchMode {
	return m + "+rerank"
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results. Defaults to 20.
	Limit int
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// Screenshot is the matched record.
	Screenshot Screenshot

	// Score is the relevance score. Comparable only within one result
	// list; the scale depends on the mode that produced it.
	Score float64

	// Mode is the retrieval strategy that produced this result.
	Mode SearchMode
}
