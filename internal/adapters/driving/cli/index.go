package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driving"
)

var (
	indexForce       bool
	indexConcurrency int
)

var indexCmd = &cobra.Command{
	Use:   "index [files...]",
	Short: "Index screenshots from the configured folders",
	Long: `Scans the configured folders for images, detects new and changed files
by content hash, and runs them through the description and embedding
pipeline. Pass explicit file paths to index just those files.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "reprocess files even when unchanged")
	indexCmd.Flags().IntVarP(&indexConcurrency, "concurrency", "c", 0, "number of files processed in parallel")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if err := ensureApp(); err != nil {
		return err
	}
	if indexer == nil {
		return errors.New("indexer not configured")
	}

	// Ctrl-C stops admitting files; whatever is in flight finishes and
	// commits, so the index is never left half-written.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := driving.IndexOptions{
		Force:       indexForce,
		Concurrency: indexConcurrency,
		Progress:    progressPrinter(cmd),
	}

	var (
		stats domain.IndexStats
		err   error
	)
	if len(args) > 0 {
		stats, err = indexer.IndexFiles(ctx, args, opts)
	} else {
		stats, err = indexer.IndexAll(ctx, opts)
	}

	printStats(cmd, stats)

	if errors.Is(err, context.Canceled) {
		cmd.Println("Interrupted; in-flight files were committed.")
		return nil
	}
	return err
}

// progressPrinter reports per-file pipeline events. Events from different
// in-flight files interleave, so each line is self-contained.
func progressPrinter(cmd *cobra.Command) domain.ProgressFunc {
	return func(p domain.Progress) {
		switch p.Status {
		case domain.FileProcessing:
			cmd.Printf("[%d/%d] %s\n", p.Index, p.Total, p.Path)
		case domain.FileFailed:
			cmd.Printf("[%d/%d] %s: failed: %s\n", p.Index, p.Total, p.Path, p.Err)
		case domain.FileCancelled:
			cmd.Printf("[%d/%d] %s: cancelled\n", p.Index, p.Total, p.Path)
		}
	}
}

func printStats(cmd *cobra.Command, stats domain.IndexStats) {
	cmd.Println()
	cmd.Printf("Indexed %d of %d files (%d new, %d updated, %d unchanged, %d failed)\n",
		stats.Processed(), stats.Total, stats.NewIndexed, stats.Updated, stats.Skipped, stats.Failed)
}
