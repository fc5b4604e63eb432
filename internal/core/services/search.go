package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driven"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driving"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.Searcher = (*SearchService)(nil)

// DefaultSearchLimit applies when SearchOptions.Limit is zero.
const DefaultSearchLimit = 20

// DefaultHybridWeight balances sparse and dense signals evenly.
const DefaultHybridWeight = 0.5

// overFetchFactor widens candidate retrieval before fusion so that hits
// strong in only one signal still make the final cut.
const overFetchFactor = 3

// SearchService routes queries to the right retrieval mode and fuses the
// sparse and dense signals into one ranked result list.
type SearchService struct {
	store    driven.ScreenshotStore
	embedder driven.EmbeddingService
	vectors  driven.VectorIndex
	sparse   driven.SparseIndex
	reranker driven.Reranker

	hybridWeight float64
}

// SearchOption configures optional collaborators of the search service.
type SearchOption func(*SearchService)

// WithSparseIndex enables BM25 lexical ranking.
func WithSparseIndex(idx driven.SparseIndex) SearchOption {
	return func(s *SearchService) { s.sparse = idx }
}

// WithReranker enables cross-encoder refinement of fused results.
func WithReranker(r driven.Reranker) SearchOption {
	return func(s *SearchService) { s.reranker = r }
}

// WithHybridWeight sets the dense share of the fused score. Values outside
// [0,1] are clamped.
func WithHybridWeight(w float64) SearchOption {
	return func(s *SearchService) {
		if w < 0 {
			w = 0
		}
		if w > 1 {
			w = 1
		}
		s.hybridWeight = w
	}
}

// NewSearchService creates a search service. The embedder may be nil, which
// disables the dense signal.
func NewSearchService(
	store driven.ScreenshotStore,
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	opts ...SearchOption,
) *SearchService {
	s := &SearchService{
		store:        store,
		embedder:     embedder,
		vectors:      vectors,
		hybridWeight: DefaultHybridWeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search executes a query. A query wrapped in matching quotes runs as an
// exact lexical phrase; everything else goes through hybrid fusion, which
// degrades to whichever single signal is available.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		// An empty query matches nothing; no store is consulted.
		return nil, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	if phrase, ok := exactPhrase(query); ok {
		return s.exactSearch(ctx, phrase, limit)
	}
	// The over-fetched candidate pool is reranked in full; only the final
	// list is cut to the requested limit.
	results, err := s.hybridSearch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	results = s.maybeRerank(ctx, query, results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// exactPhrase reports whether the query is wrapped in matching single or
// double quotes, returning the inner phrase.
func exactPhrase(query string) (string, bool) {
	if len(query) < 2 {
		return "", false
	}
	first, last := query[0], query[len(query)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		inner := strings.TrimSpace(query[1 : len(query)-1])
		return inner, inner != ""
	}
	return "", false
}

func (s *SearchService) exactSearch(ctx context.Context, phrase string, limit int) ([]domain.SearchResult, error) {
	logger.Debug("Exact phrase search: %q", phrase)
	shots, err := s.store.SearchExact(ctx, phrase, limit)
	if err != nil {
		return nil, fmt.Errorf("exact search: %w", err)
	}
	results := make([]domain.SearchResult, 0, len(shots))
	for i, shot := range shots {
		// The lexical engine exposes no comparable score; a synthetic
		// descending score preserves its rank order.
		results = append(results, domain.SearchResult{
			Screenshot: shot,
			Score:      1.0 - float64(i)*0.01,
			Mode:       domain.SearchModeExact,
		})
	}
	return results, nil
}

// hybridSearch gathers the sparse and dense signals in parallel and fuses
// them: final = (1-w)*sparse + w*dense, with a missing signal contributing
// zero. When only one signal is available the result carries that signal's
// mode instead of hybrid. The returned list holds the whole over-fetched
// candidate pool so reranking can promote any of it; the caller truncates.
func (s *SearchService) hybridSearch(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	fetch := limit * overFetchFactor

	var (
		wg         sync.WaitGroup
		sparseHits []driven.SparseScore
		denseHits  []driven.VectorHit
	)

	if s.sparse != nil && s.sparse.Fitted() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hits := s.sparse.ScoresNormalized(query)
			if len(hits) > fetch {
				hits = hits[:fetch]
			}
			sparseHits = hits
		}()
	}

	if s.embedder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			qvec, err := s.embedder.Embed(ctx, query)
			if err != nil || len(qvec) == 0 {
				logger.Warn("Query embedding failed, dense signal dropped: %v", err)
				return
			}
			hits, err := s.vectors.Search(ctx, qvec, fetch, 0)
			if err != nil {
				logger.Warn("Vector search failed, dense signal dropped: %v", err)
				return
			}
			denseHits = hits
		}()
	}
	wg.Wait()

	if len(sparseHits) == 0 && len(denseHits) == 0 {
		logger.Debug("No retrieval signal produced candidates")
		return nil, nil
	}

	mode := domain.SearchModeHybrid
	switch {
	case len(denseHits) == 0:
		mode = domain.SearchModeSparse
	case len(sparseHits) == 0:
		mode = domain.SearchModeDense
	}

	w := s.hybridWeight
	fused := make(map[int64]float64)
	for _, hit := range sparseHits {
		fused[hit.ID] += (1 - w) * hit.Score
	}
	for _, hit := range denseHits {
		fused[hit.ID] += w * hit.Score
	}

	ids := make([]int64, 0, len(fused))
	for id := range fused {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if fused[ids[i]] != fused[ids[j]] {
			return fused[ids[i]] > fused[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > fetch {
		ids = ids[:fetch]
	}

	return s.hydrate(ctx, ids, fused, mode)
}

// hydrate loads full records for the ranked ids. Ids missing from the
// content store (stale index entries) are dropped, not fatal.
func (s *SearchService) hydrate(ctx context.Context, ids []int64, scores map[int64]float64, mode domain.SearchMode) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, len(ids))
	for _, id := range ids {
		shot, err := s.store.GetByID(ctx, id)
		if err != nil {
			logger.Warn("Dropping stale hit %d: %v", id, err)
			continue
		}
		results = append(results, domain.SearchResult{
			Screenshot: *shot,
			Score:      scores[id],
			Mode:       mode,
		})
	}
	return results, nil
}

// maybeRerank refines the fused order with the cross-encoder when one is
// configured. A reranker failure keeps the fused order.
func (s *SearchService) maybeRerank(ctx context.Context, query string, results []domain.SearchResult) []domain.SearchResult {
	if s.reranker == nil || len(results) == 0 {
		return results
	}

	docs := make([]string, len(results))
	for i, r := range results {
		docs[i] = r.Screenshot.RerankText()
	}
	hits, err := s.reranker.Rerank(ctx, query, docs)
	if err != nil {
		logger.Warn("Rerank failed, keeping fused order: %v", err)
		return results
	}

	reranked := make([]domain.SearchResult, 0, len(results))
	for _, hit := range hits {
		if hit.Index < 0 || hit.Index >= len(results) {
			continue
		}
		r := results[hit.Index]
		r.Score = hit.Score
		r.Mode = r.Mode.WithRerank()
		reranked = append(reranked, r)
	}
	if len(reranked) == 0 {
		return results
	}
	return reranked
}
