package driving

import (
	"context"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
)

// IndexOptions controls a single indexing run.
type IndexOptions struct {
	// Force reprocesses every discovered file regardless of its stored
	// content hash.
	Force bool

	// Concurrency is the number of files processed in parallel.
	// Zero selects the configured default.
	Concurrency int

	// Progress, if non-nil, receives one event per admitted file.
	Progress domain.ProgressFunc

	// DryRun, honored by Reconcile, reports what would be repaired
	// without writing to any store.
	DryRun bool
}

// Indexer discovers screenshots in the configured folders and drives the
// ingestion pipeline.
type Indexer interface {
	// IndexAll scans all configured folders, detects new and changed files,
	// and processes them. It returns aggregate run statistics. A cancelled
	// context stops admission of further files; files already in flight run
	// to completion.
	IndexAll(ctx context.Context, opts IndexOptions) (domain.IndexStats, error)

	// IndexFiles processes an explicit list of files through the same
	// change-detection and pipeline path as IndexAll.
	IndexFiles(ctx context.Context, paths []string, opts IndexOptions) (domain.IndexStats, error)

	// Reconcile re-enqueues indexed entries whose dense vector or sparse
	// document is missing, repairing partial state left by interrupted runs.
	Reconcile(ctx context.Context, opts IndexOptions) (domain.IndexStats, error)

	// Clean removes index entries whose source file no longer exists on
	// disk. When dryRun is true it only reports what would be removed.
	Clean(ctx context.Context, dryRun bool) ([]string, error)
}
