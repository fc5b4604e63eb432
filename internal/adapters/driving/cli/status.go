package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Long:  `Prints the index location, record counts and model provider reachability.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := ensureApp(); err != nil {
		return err
	}
	if store == nil {
		return errors.New("content store not configured")
	}

	ctx := cmd.Context()

	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	vecCount, err := vectors.Count(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Config:    %s\n", configStore.Path())
	cmd.Printf("Database:  %s\n", store.Path())
	cmd.Println()
	cmd.Printf("Screenshots indexed: %d\n", count)
	cmd.Printf("Dense vectors:       %d\n", vecCount)
	cmd.Printf("Keyword documents:   %d\n", sparseIndex.Count())
	if count != vecCount {
		cmd.Println()
		cmd.Println("Counts differ; run 'snapidx reconcile' to repair.")
	}

	cmd.Println()
	if err := embedder.Ping(ctx); err != nil {
		cmd.Printf("Embedding provider (%s): unreachable (%v)\n", embedder.ModelName(), err)
	} else {
		cmd.Printf("Embedding provider (%s): ok\n", embedder.ModelName())
	}
	return nil
}
