package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/adapters/driving/watch"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driving"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/logger"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Index new screenshots as they appear",
	Long: `Watches the configured folders and indexes new or changed images
automatically. Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce,
		"quiet period before a change batch is indexed")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := ensureApp(); err != nil {
		return err
	}
	if indexer == nil {
		return errors.New("indexer not configured")
	}

	folders := scanFolders()
	if len(folders) == 0 {
		return errors.New("no scan folders configured; set scan_folders in the config file")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catch up on anything that changed while we were not running.
	stats, err := indexer.IndexAll(ctx, driving.IndexOptions{Progress: progressPrinter(cmd)})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	printStats(cmd, stats)
	if ctx.Err() != nil {
		return nil
	}

	cmd.Printf("Watching %d folders. Press Ctrl-C to stop.\n", len(folders))

	watcher := watch.New(folders, watchDebounce, func(ctx context.Context, paths []string) {
		stats, err := indexer.IndexFiles(ctx, paths, driving.IndexOptions{Progress: progressPrinter(cmd)})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Indexing batch: %v", err)
			return
		}
		if stats.Processed() > 0 || stats.Failed > 0 {
			printStats(cmd, stats)
		}
	})
	return watcher.Run(ctx)
}
