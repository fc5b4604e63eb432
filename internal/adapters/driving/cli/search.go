package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed screenshots",
	Long: `Searches the index by meaning and by keywords, fusing both signals.
Wrap the query in quotes ("error 403") to match the exact phrase instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := ensureApp(); err != nil {
		return err
	}
	if searcher == nil {
		return errors.New("search service not configured")
	}

	results, err := searcher.Search(cmd.Context(), args[0], domain.SearchOptions{
		Limit: searchLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

type searchResultJSON struct {
	ID          int64   `json:"id"`
	Path        string  `json:"path"`
	Score       float64 `json:"score"`
	Mode        string  `json:"mode"`
	Description string  `json:"description"`
	Text        string  `json:"text,omitempty"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, 0, len(results))
	for i := range results {
		out = append(out, searchResultJSON{
			ID:          results[i].Screenshot.ID,
			Path:        results[i].Screenshot.Path,
			Score:       results[i].Score,
			Mode:        string(results[i].Mode),
			Description: results[i].Screenshot.VisualDescription,
			Text:        results[i].Screenshot.ExtractedText,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%s):\n", results[0].Mode)
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, results[i].Screenshot.Path, results[i].Score)
		if snippet := firstLine(results[i].Screenshot.VisualDescription); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
	return nil
}

// firstLine truncates a description to one display line.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return s
}
