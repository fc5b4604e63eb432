package driven

// SparseDocument is one (id, text) entry in the sparse corpus.
type SparseDocument struct {
	ID   int64
	Text string
}

// SparseScore is one ranked lexical score.
type SparseScore struct {
	ID    int64
	Score float64
}

// SparseIndex maintains a BM25-style lexical ranking over record texts.
// Tokenization is identical between indexing and querying. Implementations
// must be safe for concurrent use; the ingestion pipeline mutates the corpus
// from multiple in-flight file tasks.
type SparseIndex interface {
	// Fit replaces the whole corpus and rebuilds the ranking structure.
	Fit(docs []SparseDocument)

	// AddDocument upserts one document by id and rebuilds. Empty text is
	// a no-op.
	AddDocument(id int64, text string)

	// RemoveDocument drops the id and rebuilds, clearing the structure
	// entirely when the corpus becomes empty.
	RemoveDocument(id int64)

	// Scores returns raw BM25 scores over the current full corpus,
	// descending.
	Scores(query string) []SparseScore

	// ScoresNormalized returns min-max normalized scores in [0,1] over
	// the current query's full result list, descending. When all raw
	// scores are equal, positive scores map to 1.0 and the rest to 0.0.
	ScoresNormalized(query string) []SparseScore

	// Count returns the corpus size.
	Count() int

	// Fitted reports whether a ranking structure exists.
	Fitted() bool

	// Persist writes the corpus blob to durable storage. The ranking
	// structure itself is never serialized; it is rebuilt from the
	// tokenized corpus on Load.
	Persist() error

	// Load restores the corpus blob and rebuilds the ranking structure.
	// A missing blob leaves the index empty and returns nil.
	Load() error
}
