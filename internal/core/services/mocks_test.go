package services

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockStore implements driven.ScreenshotStore in memory.
type mockStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]domain.Screenshot
	byPath map[string]int64

	insertErr error
	updateErr error
	exactHits []domain.Screenshot
	exactErr  error
}

func newMockStore() *mockStore {
	return &mockStore{
		nextID: 1,
		byID:   make(map[int64]domain.Screenshot),
		byPath: make(map[string]int64),
	}
}

func (m *mockStore) Insert(_ context.Context, s *domain.Screenshot) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	id := m.nextID
	m.nextID++
	rec := *s
	rec.ID = id
	m.byID[id] = rec
	m.byPath[s.Path] = id
	return id, nil
}

func (m *mockStore) Update(_ context.Context, s *domain.Screenshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.byID[s.ID]; !ok {
		return domain.ErrNotFound
	}
	m.byID[s.ID] = *s
	m.byPath[s.Path] = s.ID
	return nil
}

func (m *mockStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	delete(m.byPath, rec.Path)
	return nil
}

func (m *mockStore) GetByPath(_ context.Context, path string) (*domain.Screenshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPath[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec := m.byID[id]
	return &rec, nil
}

func (m *mockStore) GetByID(_ context.Context, id int64) (*domain.Screenshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (m *mockStore) PathHashes(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.byID))
	for _, rec := range m.byID {
		out[rec.Path] = rec.ContentHash
	}
	return out, nil
}

func (m *mockStore) All(_ context.Context) ([]domain.Screenshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Screenshot, 0, len(m.byID))
	for _, rec := range m.byID {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) SearchExact(_ context.Context, _ string, limit int) ([]domain.Screenshot, error) {
	if m.exactErr != nil {
		return nil, m.exactErr
	}
	if limit < len(m.exactHits) {
		return m.exactHits[:limit], nil
	}
	return m.exactHits, nil
}

func (m *mockStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID), nil
}

func (m *mockStore) Close() error { return nil }

// mockVectorIndex implements driven.VectorIndex in memory.
type mockVectorIndex struct {
	mu      sync.Mutex
	vectors map[int64][]float32
	hits    []driven.VectorHit

	addErr       error
	searchErr    error
	addCalls     int
	batchDeletes [][]int64
}

func newMockVectorIndex() *mockVectorIndex {
	return &mockVectorIndex{vectors: make(map[int64][]float32)}
}

func (m *mockVectorIndex) Add(_ context.Context, id int64, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCalls++
	if m.addErr != nil {
		return m.addErr
	}
	m.vectors[id] = embedding
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, limit int, _ float64) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit < len(m.hits) {
		return m.hits[:limit], nil
	}
	return m.hits, nil
}

func (m *mockVectorIndex) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, id)
	return nil
}

func (m *mockVectorIndex) DeleteBatch(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	m.batchDeletes = append(m.batchDeletes, ids)
	m.mu.Unlock()
	for _, id := range ids {
		if err := m.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockVectorIndex) Has(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.vectors[id]
	return ok, nil
}

func (m *mockVectorIndex) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vectors), nil
}

func (m *mockVectorIndex) Flush() error { return nil }
func (m *mockVectorIndex) Close() error { return nil }

// mockSparseIndex implements driven.SparseIndex in memory.
type mockSparseIndex struct {
	mu     sync.Mutex
	docs   map[int64]string
	scores []driven.SparseScore
}

func newMockSparseIndex() *mockSparseIndex {
	return &mockSparseIndex{docs: make(map[int64]string)}
}

func (m *mockSparseIndex) Fit(docs []driven.SparseDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[int64]string, len(docs))
	for _, d := range docs {
		m.docs[d.ID] = d.Text
	}
}

func (m *mockSparseIndex) AddDocument(id int64, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if text == "" {
		return
	}
	m.docs[id] = text
}

func (m *mockSparseIndex) RemoveDocument(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
}

func (m *mockSparseIndex) Scores(_ string) []driven.SparseScore           { return m.scores }
func (m *mockSparseIndex) ScoresNormalized(_ string) []driven.SparseScore { return m.scores }

func (m *mockSparseIndex) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

func (m *mockSparseIndex) Fitted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs) > 0
}

func (m *mockSparseIndex) Persist() error { return nil }
func (m *mockSparseIndex) Load() error    { return nil }

// mockEmbedder implements driven.EmbeddingService.
type mockEmbedder struct {
	embedding []float32
	embedErr  error
	calls     atomic.Int32
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls.Add(1)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.embedding
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return len(m.embedding) }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockDescriber implements driven.VisualDescriber.
type mockDescriber struct {
	mu          sync.Mutex
	description string
	err         error
	inFlight    int
	maxInFlight int
	block       chan struct{}
}

func (m *mockDescriber) Describe(ctx context.Context, _ string) (string, error) {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	block := m.block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
		}
	}

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	return m.description, nil
}

// mockExtractor implements driven.TextExtractor.
type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) Extract(_ context.Context, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

// mockReranker implements driven.Reranker.
type mockReranker struct {
	hits []driven.RerankHit
	err  error

	lastDocs []string
}

func (m *mockReranker) Rerank(_ context.Context, _ string, docs []string) ([]driven.RerankHit, error) {
	m.lastDocs = docs
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

func (m *mockReranker) Close() error { return nil }
