package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driving"
)

var (
	reconcileDryRun bool
	cleanDryRun     bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair entries with missing vectors",
	Long: `Re-embeds indexed screenshots whose dense vector is missing, repairing
partial state left behind by an interrupted run.`,
	RunE: runReconcile,
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove entries for deleted files",
	Long:  `Removes index entries whose source image no longer exists on disk.`,
	RunE:  runClean,
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "report repairs without applying them")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "report removals without applying them")
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(cleanCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	if err := ensureApp(); err != nil {
		return err
	}
	if indexer == nil {
		return errors.New("indexer not configured")
	}

	stats, err := indexer.Reconcile(cmd.Context(), driving.IndexOptions{DryRun: reconcileDryRun})
	if err != nil {
		return err
	}
	if reconcileDryRun {
		cmd.Printf("Checked %d entries: %d would be repaired, %d intact (dry run)\n",
			stats.Total, stats.Updated, stats.Skipped)
		return nil
	}
	cmd.Printf("Checked %d entries: %d repaired, %d intact, %d failed\n",
		stats.Total, stats.Updated, stats.Skipped, stats.Failed)
	return nil
}

func runClean(cmd *cobra.Command, _ []string) error {
	if err := ensureApp(); err != nil {
		return err
	}
	if indexer == nil {
		return errors.New("indexer not configured")
	}

	removed, err := indexer.Clean(cmd.Context(), cleanDryRun)
	if err != nil {
		return err
	}

	if len(removed) == 0 {
		cmd.Println("Nothing to clean.")
		return nil
	}
	for _, path := range removed {
		cmd.Printf("  %s\n", path)
	}
	if cleanDryRun {
		cmd.Printf("%d entries would be removed (dry run).\n", len(removed))
	} else {
		cmd.Printf("Removed %d entries.\n", len(removed))
	}
	return nil
}
