package cli

import (
	"context"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driving"
)

// disarmApp spends the wiring Once so command tests run against the
// package-level service vars installed by the test instead of real stores.
func disarmApp() {
	appOnce.Do(func() {})
}

// mockSearcher implements driving.Searcher for testing.
type mockSearcher struct {
	results []domain.SearchResult
	err     error

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockSearcher) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

// mockIndexer implements driving.Indexer for testing.
type mockIndexer struct {
	stats   domain.IndexStats
	err     error
	removed []string

	indexAllCalled   bool
	indexFilesCalled bool
	reconcileCalled  bool
	lastPaths        []string
	lastOpts         driving.IndexOptions
	lastDryRun       bool
}

func (m *mockIndexer) IndexAll(_ context.Context, opts driving.IndexOptions) (domain.IndexStats, error) {
	m.indexAllCalled = true
	m.lastOpts = opts
	return m.stats, m.err
}

func (m *mockIndexer) IndexFiles(_ context.Context, paths []string, opts driving.IndexOptions) (domain.IndexStats, error) {
	m.indexFilesCalled = true
	m.lastPaths = paths
	m.lastOpts = opts
	return m.stats, m.err
}

func (m *mockIndexer) Reconcile(_ context.Context, opts driving.IndexOptions) (domain.IndexStats, error) {
	m.reconcileCalled = true
	m.lastOpts = opts
	return m.stats, m.err
}

func (m *mockIndexer) Clean(_ context.Context, dryRun bool) ([]string, error) {
	m.lastDryRun = dryRun
	return m.removed, m.err
}

func setupSearchTest(m *mockSearcher) func() {
	disarmApp()
	oldSearcher := searcher
	searcher = m
	return func() {
		searcher = oldSearcher
	}
}

func setupIndexerTest(m *mockIndexer) func() {
	disarmApp()
	oldIndexer := indexer
	indexer = m
	return func() {
		indexer = oldIndexer
	}
}
