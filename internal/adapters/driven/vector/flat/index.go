// Package flat implements the dense vector index as an exhaustive cosine
// similarity scan over an in-memory table. Exact results, no graph build
// cost, and the corpus sizes involved (thousands of screenshots) keep the
// scan well under interactive latency.
package flat

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a thread-safe flat vector index persisted as a binary file.
type Index struct {
	mu   sync.RWMutex
	path string
	dims int
	vecs map[int64][]float32

	dirty bool
}

// New creates an index persisting at path, restoring any existing file.
// dims fixes the vector dimensionality; zero adopts the first vector's.
func New(path string, dims int) (*Index, error) {
	ix := &Index{
		path: path,
		dims: dims,
		vecs: make(map[int64][]float32),
	}
	if err := ix.load(); err != nil {
		return nil, err
	}
	return ix, nil
}

// Add inserts or replaces the vector for id.
func (ix *Index) Add(_ context.Context, id int64, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("%w: empty vector", domain.ErrInvalidInput)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.dims == 0 {
		ix.dims = len(embedding)
	}
	if len(embedding) != ix.dims {
		return fmt.Errorf("%w: got %d, index has %d", domain.ErrDimensionMismatch, len(embedding), ix.dims)
	}

	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	ix.vecs[id] = vec
	ix.dirty = true
	return nil
}

// Search scans every stored vector and returns the top hits by cosine
// similarity, best first. A threshold > 0 drops hits scoring below it.
func (ix *Index) Search(_ context.Context, query []float32, limit int, threshold float64) ([]driven.VectorHit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.vecs) == 0 || limit <= 0 {
		return nil, nil
	}
	if len(query) != ix.dims {
		return nil, fmt.Errorf("%w: query has %d, index has %d", domain.ErrDimensionMismatch, len(query), ix.dims)
	}

	hits := make([]driven.VectorHit, 0, len(ix.vecs))
	for id, vec := range ix.vecs {
		score := cosineSimilarity(query, vec)
		if threshold > 0 && score < threshold {
			continue
		}
		hits = append(hits, driven.VectorHit{ID: id, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Delete removes a vector. Unknown ids are a no-op.
func (ix *Index) Delete(_ context.Context, id int64) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.vecs[id]; ok {
		delete(ix.vecs, id)
		ix.dirty = true
	}
	return nil
}

// DeleteBatch removes multiple vectors.
func (ix *Index) DeleteBatch(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if err := ix.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether a vector exists for id.
func (ix *Index) Has(_ context.Context, id int64) (bool, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.vecs[id]
	return ok, nil
}

// Count returns the number of stored vectors.
func (ix *Index) Count(_ context.Context) (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vecs), nil
}

// Flush persists the index if it changed since the last write.
func (ix *Index) Flush() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if !ix.dirty {
		return nil
	}
	if err := ix.persistLocked(); err != nil {
		return err
	}
	ix.dirty = false
	return nil
}

// Close flushes and releases the index.
func (ix *Index) Close() error {
	return ix.Flush()
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// File layout: uint32 count, uint32 dims, then per vector an int64 id
// followed by dims little-endian float32 values.

func (ix *Index) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(ix.path), 0o755); err != nil {
		return fmt.Errorf("create vector index dir: %w", err)
	}

	buf := make([]byte, 0, 8+len(ix.vecs)*(8+ix.dims*4))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ix.vecs)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(ix.dims))

	ids := make([]int64, 0, len(ix.vecs))
	for id := range ix.vecs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(id))
		for _, v := range ix.vecs[id] {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}

	tmp := ix.path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("write vector index: %w", err)
	}
	if err := os.Rename(tmp, ix.path); err != nil {
		return fmt.Errorf("replace vector index: %w", err)
	}
	return nil
}

func (ix *Index) load() error {
	data, err := os.ReadFile(ix.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read vector index: %w", err)
	}
	if len(data) < 8 {
		return fmt.Errorf("read vector index: truncated header")
	}

	count := int(binary.LittleEndian.Uint32(data[0:4]))
	dims := int(binary.LittleEndian.Uint32(data[4:8]))
	if ix.dims != 0 && dims != 0 && dims != ix.dims {
		return fmt.Errorf("%w: file has %d, index configured for %d", domain.ErrDimensionMismatch, dims, ix.dims)
	}

	entrySize := 8 + dims*4
	if len(data)-8 != count*entrySize {
		return fmt.Errorf("read vector index: size mismatch")
	}

	off := 8
	for i := 0; i < count; i++ {
		id := int64(binary.LittleEndian.Uint64(data[off : off+8]))
		off += 8
		vec := make([]float32, dims)
		for j := 0; j < dims; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		ix.vecs[id] = vec
	}
	if dims != 0 {
		ix.dims = dims
	}
	return nil
}
