package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driven"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driving"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.Indexer = (*Indexer)(nil)

// DefaultConcurrency bounds in-flight files when no override is configured.
// Kept low: every file holds a slot through a call to the GPU-bound vision
// provider.
const DefaultConcurrency = 2

// Indexer drives the screenshot ingestion pipeline: discovery, change
// detection, extraction, description, embedding and the tri-store commit.
type Indexer struct {
	store     driven.ScreenshotStore
	extractor driven.TextExtractor
	describer driven.VisualDescriber
	embedder  driven.EmbeddingService
	vectors   driven.VectorIndex
	sparse    driven.SparseIndex

	folders     []domain.ScanFolder
	concurrency int
}

// NewIndexer creates an indexer over the given stores and providers.
// The extractor and sparse index are optional; nil disables OCR and sparse
// indexing respectively.
func NewIndexer(
	store driven.ScreenshotStore,
	extractor driven.TextExtractor,
	describer driven.VisualDescriber,
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	sparse driven.SparseIndex,
	folders []domain.ScanFolder,
	concurrency int,
) *Indexer {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Indexer{
		store:       store,
		extractor:   extractor,
		describer:   describer,
		embedder:    embedder,
		vectors:     vectors,
		sparse:      sparse,
		folders:     folders,
		concurrency: concurrency,
	}
}

// DiscoverImages walks the configured folders and returns every image file,
// sorted for deterministic processing order. Non-recursive folders only
// yield their direct children.
func (ix *Indexer) DiscoverImages(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	for _, folder := range ix.folders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		root := folder.Path
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("Walk error at %s: %v", path, err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if !folder.Recursive && path != root {
					return fs.SkipDir
				}
				return nil
			}
			if !domain.IsImagePath(path) {
				return nil
			}
			abs, aerr := filepath.Abs(path)
			if aerr != nil {
				abs = path
			}
			if !seen[abs] {
				seen[abs] = true
				paths = append(paths, abs)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// IndexAll scans all configured folders and processes new and changed files.
func (ix *Indexer) IndexAll(ctx context.Context, opts driving.IndexOptions) (domain.IndexStats, error) {
	paths, err := ix.DiscoverImages(ctx)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("discover images: %w", err)
	}
	return ix.IndexFiles(ctx, paths, opts)
}

// IndexFiles runs change detection over the given paths and pushes the new
// and changed ones through the pipeline with bounded concurrency.
func (ix *Indexer) IndexFiles(ctx context.Context, paths []string, opts driving.IndexOptions) (domain.IndexStats, error) {
	runID := uuid.NewString()
	logger.Section("Index run " + runID)
	logger.Info("Discovered %d candidate files", len(paths))

	stored, err := ix.store.PathHashes(ctx)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("load stored hashes: %w", err)
	}

	changes, hashes, err := DetectChanges(ctx, paths, stored, opts.Force)
	if err != nil {
		return domain.IndexStats{}, err
	}
	logger.Info("Changes: %d new, %d changed, %d unchanged, %d unreadable",
		len(changes.New), len(changes.Changed), len(changes.Unchanged), len(changes.Unreadable))

	stats := domain.IndexStats{
		Total:   len(paths),
		Skipped: len(changes.Unchanged),
		Failed:  len(changes.Unreadable),
	}

	newSet := make(map[string]bool, len(changes.New))
	for _, p := range changes.New {
		newSet[p] = true
	}

	report := func(p domain.Progress) {
		if opts.Progress != nil {
			opts.Progress(p)
		}
	}

	toProcess := changes.ToProcess()
	total := len(toProcess) + len(changes.Unchanged)
	for i, path := range changes.Unchanged {
		if ctx.Err() != nil {
			break
		}
		report(domain.Progress{Path: path, Index: i + 1, Total: total, Status: domain.FileSkipped})
	}

	if len(toProcess) == 0 {
		return stats, nil
	}

	conc := opts.Concurrency
	if conc <= 0 {
		conc = ix.concurrency
	}
	pool, err := ants.NewPool(conc)
	if err != nil {
		return stats, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	offset := len(changes.Unchanged)
	for i, path := range toProcess {
		// Cancellation is cooperative: once observed, no further files
		// are admitted and the remainder get no progress events.
		if ctx.Err() != nil {
			break
		}
		index := offset + i + 1
		path := path
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			if ctx.Err() != nil {
				report(domain.Progress{Path: path, Index: index, Total: total, Status: domain.FileCancelled})
				return
			}
			report(domain.Progress{Path: path, Index: index, Total: total, Status: domain.FileProcessing})

			isNew := newSet[path]
			procErr := ix.processFile(ctx, path, hashes[path], isNew)

			mu.Lock()
			switch {
			case procErr != nil:
				stats.Failed++
			case isNew:
				stats.NewIndexed++
			default:
				stats.Updated++
			}
			mu.Unlock()

			if procErr != nil {
				logger.Error("Failed to index %s: %v", path, procErr)
				report(domain.Progress{Path: path, Index: index, Total: total, Status: domain.FileFailed, Err: procErr.Error()})
				return
			}
			report(domain.Progress{Path: path, Index: index, Total: total, Status: domain.FileDone})
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			stats.Failed++
			mu.Unlock()
			logger.Error("Failed to submit %s: %v", path, submitErr)
		}
	}
	wg.Wait()

	if ix.sparse != nil {
		if err := ix.sparse.Persist(); err != nil {
			logger.Warn("Failed to persist sparse index: %v", err)
		}
	}
	if err := ix.vectors.Flush(); err != nil {
		logger.Warn("Failed to flush vector index: %v", err)
	}

	logger.Info("Index run %s done: %d new, %d updated, %d skipped, %d failed",
		runID, stats.NewIndexed, stats.Updated, stats.Skipped, stats.Failed)
	return stats, ctx.Err()
}

// processFile runs one file through extraction, description, embedding and
// the commit sequence. Any stage error aborts the file before the first
// store write; commit errors after the content store write surface as
// domain.ErrPartialCommit.
func (ix *Indexer) processFile(ctx context.Context, path, hash string, isNew bool) error {
	// Extraction and description have no data dependency, so they run
	// concurrently. An extractor error degrades to empty text; a describer
	// error aborts the file.
	var (
		text string
		desc string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if ix.extractor == nil {
			return nil
		}
		t, err := ix.extractor.Extract(gctx, path)
		if err != nil {
			logger.Warn("OCR failed for %s: %v", path, err)
			return nil
		}
		text = t
		return nil
	})
	g.Go(func() error {
		d, err := ix.describer.Describe(gctx, path)
		if err != nil {
			return fmt.Errorf("describe: %w", err)
		}
		desc = d
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	shot := &domain.Screenshot{
		Path:              path,
		ContentHash:       hash,
		ExtractedText:     strings.TrimSpace(text),
		VisualDescription: strings.TrimSpace(desc),
		IndexedAt:         time.Now().UTC(),
	}
	combined := shot.CombinedText()
	if combined == "" {
		return domain.ErrEmptyContent
	}

	embedding, err := ix.embedder.Embed(ctx, combined)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNoEmbedding, err)
	}
	if len(embedding) == 0 {
		return domain.ErrNoEmbedding
	}

	return ix.commit(ctx, shot, embedding, isNew)
}

// commit writes the record to the content store, dense index and sparse
// index, in that order. The content store write happens first so a crash
// leaves at worst a row a reconcile pass can repair. A dense write failure
// after a fresh insert is compensated by deleting the row; when the
// compensation itself fails, or the record pre-existed, the stores are
// inconsistent and the error wraps domain.ErrPartialCommit.
func (ix *Indexer) commit(ctx context.Context, shot *domain.Screenshot, embedding []float32, isNew bool) error {
	if isNew {
		id, err := ix.store.Insert(ctx, shot)
		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
		shot.ID = id
	} else {
		existing, err := ix.store.GetByPath(ctx, shot.Path)
		if err != nil {
			return fmt.Errorf("load existing record: %w", err)
		}
		shot.ID = existing.ID
		if err := ix.store.Update(ctx, shot); err != nil {
			return fmt.Errorf("update record: %w", err)
		}
	}

	if err := ix.vectors.Add(ctx, shot.ID, embedding); err != nil {
		if isNew {
			if delErr := ix.store.Delete(ctx, shot.ID); delErr == nil {
				return fmt.Errorf("store vector: %w", err)
			}
		}
		return fmt.Errorf("%w: store vector for id %d: %v", domain.ErrPartialCommit, shot.ID, err)
	}

	if ix.sparse != nil {
		ix.sparse.AddDocument(shot.ID, shot.CombinedText())
	}
	return nil
}

// Reconcile re-embeds indexed records whose dense vector is missing,
// repairing partial state left by interrupted runs.
func (ix *Indexer) Reconcile(ctx context.Context, opts driving.IndexOptions) (domain.IndexStats, error) {
	records, err := ix.store.All(ctx)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("load records: %w", err)
	}

	stats := domain.IndexStats{Total: len(records)}
	for _, shot := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		ok, err := ix.vectors.Has(ctx, shot.ID)
		if err != nil {
			return stats, fmt.Errorf("check vector for id %d: %w", shot.ID, err)
		}
		if ok {
			stats.Skipped++
			continue
		}
		if opts.DryRun {
			stats.Updated++
			continue
		}

		combined := shot.CombinedText()
		if combined == "" {
			stats.Failed++
			continue
		}
		embedding, err := ix.embedder.Embed(ctx, combined)
		if err != nil || len(embedding) == 0 {
			logger.Warn("Reconcile: embedding failed for %s: %v", shot.Path, err)
			stats.Failed++
			continue
		}
		if err := ix.vectors.Add(ctx, shot.ID, embedding); err != nil {
			logger.Warn("Reconcile: vector write failed for %s: %v", shot.Path, err)
			stats.Failed++
			continue
		}
		if ix.sparse != nil {
			ix.sparse.AddDocument(shot.ID, combined)
		}
		stats.Updated++
	}

	if opts.DryRun {
		return stats, nil
	}
	if err := ix.vectors.Flush(); err != nil {
		return stats, fmt.Errorf("flush vector index: %w", err)
	}
	if ix.sparse != nil {
		if err := ix.sparse.Persist(); err != nil {
			logger.Warn("Failed to persist sparse index: %v", err)
		}
	}
	return stats, nil
}

// Clean removes index entries whose source file is gone from disk or whose
// visual description is empty. Entries missing only their dense vector are
// repairable and belong to Reconcile, not Clean.
func (ix *Indexer) Clean(ctx context.Context, dryRun bool) ([]string, error) {
	records, err := ix.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	var (
		removed []string
		ids     []int64
	)
	for _, shot := range records {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !cleanable(shot) {
			continue
		}
		removed = append(removed, shot.Path)
		ids = append(ids, shot.ID)
	}
	if dryRun || len(removed) == 0 {
		return removed, nil
	}

	for _, id := range ids {
		if err := ix.store.Delete(ctx, id); err != nil {
			return removed, fmt.Errorf("delete record %d: %w", id, err)
		}
		if ix.sparse != nil {
			ix.sparse.RemoveDocument(id)
		}
	}
	if err := ix.vectors.DeleteBatch(ctx, ids); err != nil {
		logger.Warn("Clean: vector delete failed: %v", err)
	}
	if err := ix.vectors.Flush(); err != nil {
		return removed, fmt.Errorf("flush vector index: %w", err)
	}
	if ix.sparse != nil {
		if err := ix.sparse.Persist(); err != nil {
			logger.Warn("Failed to persist sparse index: %v", err)
		}
	}
	return removed, nil
}

// cleanable reports whether a record is beyond repair and should be removed:
// its file no longer exists, or it never got a visual description.
func cleanable(shot domain.Screenshot) bool {
	if strings.TrimSpace(shot.VisualDescription) == "" {
		return true
	}
	_, err := os.Stat(shot.Path)
	return errors.Is(err, fs.ErrNotExist)
}

// EnsureSparse restores the sparse index from its persisted blob, refitting
// from the content store when the blob is missing or out of step with the
// stored record count.
func (ix *Indexer) EnsureSparse(ctx context.Context) error {
	if ix.sparse == nil {
		return nil
	}
	if err := ix.sparse.Load(); err != nil {
		logger.Warn("Sparse index load failed, refitting: %v", err)
	}
	count, err := ix.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	if ix.sparse.Fitted() && ix.sparse.Count() == count {
		return nil
	}

	records, err := ix.store.All(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	docs := make([]driven.SparseDocument, 0, len(records))
	for _, shot := range records {
		if combined := shot.CombinedText(); combined != "" {
			docs = append(docs, driven.SparseDocument{ID: shot.ID, Text: combined})
		}
	}
	ix.sparse.Fit(docs)
	return ix.sparse.Persist()
}
