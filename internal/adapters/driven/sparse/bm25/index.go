// Package bm25 implements the sparse lexical index with Okapi BM25
// ranking. The corpus lives in memory; only the raw corpus is persisted,
// the ranking structure is rebuilt from it on load.
package bm25

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driven"
)

// Okapi BM25 parameters.
const (
	paramK1      = 1.5
	paramB       = 0.75
	paramEpsilon = 0.25
)

// Ensure Index implements the interface.
var _ driven.SparseIndex = (*Index)(nil)

// Index is a thread-safe BM25 index over screenshot texts.
type Index struct {
	mu   sync.RWMutex
	path string

	ids       []int64
	corpus    []string
	tokenized [][]string

	// Ranking structure, derived from the corpus on every mutation.
	fitted   bool
	docLens  []float64
	avgdl    float64
	termFreq []map[string]int
	idf      map[string]float64
}

// New creates an index persisting its corpus blob at the given file path.
func New(path string) *Index {
	return &Index{path: path}
}

// tokenize lowercases and splits on whitespace. Indexing and querying must
// agree on this exactly or scores become meaningless.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Fit replaces the whole corpus and rebuilds the ranking structure.
func (ix *Index) Fit(docs []driven.SparseDocument) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.ids = ix.ids[:0]
	ix.corpus = ix.corpus[:0]
	ix.tokenized = ix.tokenized[:0]
	for _, d := range docs {
		if strings.TrimSpace(d.Text) == "" {
			continue
		}
		ix.ids = append(ix.ids, d.ID)
		ix.corpus = append(ix.corpus, d.Text)
		ix.tokenized = append(ix.tokenized, tokenize(d.Text))
	}
	ix.rebuild()
}

// AddDocument upserts one document and rebuilds. Empty text is a no-op.
func (ix *Index) AddDocument(id int64, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if pos := ix.find(id); pos >= 0 {
		ix.corpus[pos] = text
		ix.tokenized[pos] = tokenize(text)
	} else {
		ix.ids = append(ix.ids, id)
		ix.corpus = append(ix.corpus, text)
		ix.tokenized = append(ix.tokenized, tokenize(text))
	}
	ix.rebuild()
}

// RemoveDocument drops the id and rebuilds. Removing the last document
// clears the ranking structure entirely.
func (ix *Index) RemoveDocument(id int64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	pos := ix.find(id)
	if pos < 0 {
		return
	}
	ix.ids = append(ix.ids[:pos], ix.ids[pos+1:]...)
	ix.corpus = append(ix.corpus[:pos], ix.corpus[pos+1:]...)
	ix.tokenized = append(ix.tokenized[:pos], ix.tokenized[pos+1:]...)
	ix.rebuild()
}

// find returns the corpus position of id, or -1.
// Caller must hold the lock.
func (ix *Index) find(id int64) int {
	for i, existing := range ix.ids {
		if existing == id {
			return i
		}
	}
	return -1
}

// rebuild recomputes document frequencies and idf from the tokenized
// corpus. Caller must hold the write lock.
func (ix *Index) rebuild() {
	n := len(ix.tokenized)
	if n == 0 {
		ix.fitted = false
		ix.docLens = nil
		ix.termFreq = nil
		ix.idf = nil
		ix.avgdl = 0
		return
	}

	ix.docLens = make([]float64, n)
	ix.termFreq = make([]map[string]int, n)
	nd := make(map[string]int)

	totalLen := 0
	for i, tokens := range ix.tokenized {
		ix.docLens[i] = float64(len(tokens))
		totalLen += len(tokens)

		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		ix.termFreq[i] = freqs
		for term := range freqs {
			nd[term]++
		}
	}
	ix.avgdl = float64(totalLen) / float64(n)

	// Standard Okapi idf, with negative values floored to a fraction of
	// the average so very common terms still contribute a little.
	ix.idf = make(map[string]float64, len(nd))
	var idfSum float64
	var negative []string
	for term, freq := range nd {
		v := math.Log((float64(n) - float64(freq) + 0.5) / (float64(freq) + 0.5))
		ix.idf[term] = v
		idfSum += v
		if v < 0 {
			negative = append(negative, term)
		}
	}
	avgIdf := idfSum / float64(len(ix.idf))
	for _, term := range negative {
		ix.idf[term] = paramEpsilon * avgIdf
	}
	ix.fitted = true
}

// Scores returns raw BM25 scores over the full corpus, descending.
func (ix *Index) Scores(query string) []driven.SparseScore {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.scoresLocked(query)
}

func (ix *Index) scoresLocked(query string) []driven.SparseScore {
	if !ix.fitted {
		return nil
	}
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	out := make([]driven.SparseScore, len(ix.ids))
	for i, id := range ix.ids {
		var score float64
		for _, tok := range queryTokens {
			f := float64(ix.termFreq[i][tok])
			if f == 0 {
				continue
			}
			norm := paramK1 * (1 - paramB + paramB*ix.docLens[i]/ix.avgdl)
			score += ix.idf[tok] * (f * (paramK1 + 1)) / (f + norm)
		}
		out[i] = driven.SparseScore{ID: id, Score: score}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ScoresNormalized min-max normalizes the raw scores into [0,1] over the
// full result list. When every raw score is equal, positive scores map to
// 1.0 and non-positive to 0.0.
func (ix *Index) ScoresNormalized(query string) []driven.SparseScore {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	raw := ix.scoresLocked(query)
	if len(raw) == 0 {
		return nil
	}

	minScore, maxScore := raw[len(raw)-1].Score, raw[0].Score
	spread := maxScore - minScore
	out := make([]driven.SparseScore, len(raw))
	for i, s := range raw {
		var norm float64
		if spread > 0 {
			norm = (s.Score - minScore) / spread
		} else if s.Score > 0 {
			norm = 1.0
		}
		out[i] = driven.SparseScore{ID: s.ID, Score: norm}
	}
	return out
}

// Count returns the corpus size.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.ids)
}

// Fitted reports whether a ranking structure exists.
func (ix *Index) Fitted() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.fitted
}

// blob is the persisted corpus format: parallel arrays, no derived state.
type blob struct {
	IDs       []int64    `json:"ids"`
	Corpus    []string   `json:"corpus"`
	Tokenized [][]string `json:"tokenized"`
}

// Persist writes the corpus blob atomically (write temp, rename).
func (ix *Index) Persist() error {
	ix.mu.RLock()
	data, err := json.Marshal(blob{IDs: ix.ids, Corpus: ix.corpus, Tokenized: ix.tokenized})
	ix.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal sparse corpus: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(ix.path), 0o755); err != nil {
		return fmt.Errorf("create sparse index dir: %w", err)
	}
	tmp := ix.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write sparse corpus: %w", err)
	}
	if err := os.Rename(tmp, ix.path); err != nil {
		return fmt.Errorf("replace sparse corpus: %w", err)
	}
	return nil
}

// Load restores the corpus blob and rebuilds the ranking structure.
// A missing blob leaves the index empty and returns nil.
func (ix *Index) Load() error {
	data, err := os.ReadFile(ix.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read sparse corpus: %w", err)
	}

	var stored blob
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("decode sparse corpus: %w", err)
	}
	if len(stored.IDs) != len(stored.Corpus) || len(stored.IDs) != len(stored.Tokenized) {
		return fmt.Errorf("decode sparse corpus: mismatched array lengths")
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.ids = stored.IDs
	ix.corpus = stored.Corpus
	ix.tokenized = stored.Tokenized
	ix.rebuild()
	return nil
}
