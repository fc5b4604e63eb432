package domain

// FileStatus is a per-file state reported during batch ingestion.
// A given file's events always arrive in state-machine order; events for
// different files may interleave.
type FileStatus string

const (
	// FileProcessing is emitted when a file is admitted to the pipeline.
	FileProcessing FileStatus = "processing"

	// FileDone is emitted after a successful commit to all stores.
	FileDone FileStatus = "done"

	// FileFailed is emitted when any stage or the commit aborted the file.
	FileFailed FileStatus = "failed"

	// FileSkipped is emitted for files whose content hash is unchanged.
	FileSkipped FileStatus = "skipped"

	// FileCancelled is emitted when cancellation was observed before the
	// file's first stage ran.
	FileCancelled FileStatus = "cancelled"
)

// Progress is one batch ingestion event. Callbacks may be invoked
// concurrently from different in-flight files.
type Progress struct {
	// Path is the file the event refers to.
	Path string

	// Index is the 1-based position within the reported set, which covers
	// skipped files as well as processed ones.
	Index int

	// Total is the size of the reported set.
	Total int

	// Status is the file's new state.
	Status FileStatus

	// Err carries the failure message when Status is FileFailed.
	Err string
}

// ProgressFunc observes batch ingestion events. A nil ProgressFunc is valid
// and disables reporting.
type ProgressFunc func(Progress)

// IndexStats aggregates the outcome of one batch ingestion run.
type IndexStats struct {
	// Total is the number of files discovered.
	Total int

	// NewIndexed is the number of previously unknown files committed.
	NewIndexed int

	// Updated is the number of changed files recommitted under their
	// existing id.
	Updated int

	// Skipped is the number of files left untouched (unchanged hash).
	Skipped int

	// Failed is the number of files aborted by a stage or commit error.
	Failed int
}

// Processed returns the number of files written to the stores.
func (s *IndexStats) Processed() int {
	return s.NewIndexed + s.Updated
}
