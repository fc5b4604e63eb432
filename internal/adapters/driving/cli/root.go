// Package cli implements the snapidx command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/adapters/driven/config/file"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/adapters/driven/embedding/ollama"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/adapters/driven/embedding/openai"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/adapters/driven/ocr/command"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/adapters/driven/ocr/noop"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/adapters/driven/rerank/httpapi"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/adapters/driven/sparse/bm25"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/adapters/driven/storage/sqlite"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/adapters/driven/vector/flat"
	visionollama "github.com/Creative-Geek/Searchable-Screenshots/internal/adapters/driven/vision/ollama"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driven"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driving"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/services"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/logger"
)

var (
	version = "dev"
	verbose bool
)

// Application wiring, built lazily so commands like version and help never
// touch the database or the model providers.
var (
	appOnce sync.Once
	appErr  error

	configStore *file.ConfigStore
	store       *sqlite.Store
	vectors     *flat.Index
	sparseIndex *bm25.Index
	embedder    driven.EmbeddingService
	indexer     driving.Indexer
	searcher    driving.Searcher
)

var rootCmd = &cobra.Command{
	Use:   "snapidx",
	Short: "Index and search your screenshots",
	Long: `snapidx turns folders of screenshots into a searchable index.
Each image is described by a local vision model and OCR'd; queries combine
keyword and semantic matching, with quoted queries matching exact phrases.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the CLI.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	defer closeApp()
	return rootCmd.Execute()
}

// ensureApp builds the stores, providers and services on first use.
func ensureApp() error {
	appOnce.Do(func() { appErr = buildApp() })
	return appErr
}

func buildApp() error {
	var err error
	configStore, err = file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dir := dataDir()

	store, err = sqlite.NewStore(dir)
	if err != nil {
		return fmt.Errorf("open content store: %w", err)
	}

	vectors, err = flat.New(filepath.Join(dir, "vectors.bin"), configStore.GetInt("embed_dimensions"))
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}

	sparseIndex = bm25.New(filepath.Join(dir, "sparse.json"))

	embedder, err = buildEmbedder()
	if err != nil {
		return err
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}
	describePrompt, err := prompts.Load(driven.PromptDescribe)
	if err != nil {
		return fmt.Errorf("load describe prompt: %w", err)
	}

	describer := visionollama.NewDescriber(visionollama.Config{
		BaseURL: configStore.GetString("ollama_url"),
		Model:   configStore.GetString("vision_model"),
		Prompt:  describePrompt,
	})

	var extractor driven.TextExtractor = noop.New()
	if ocrCmd := configStore.GetString("ocr_command"); ocrCmd != "" {
		parts := strings.Fields(ocrCmd)
		extractor = command.New(parts[0], parts[1:])
	}

	ix := services.NewIndexer(
		store,
		extractor,
		describer,
		embedder,
		vectors,
		sparseIndex,
		scanFolders(),
		configStore.GetInt("concurrency"),
	)
	// A stale or missing sparse index degrades search, it does not break it.
	if err := ix.EnsureSparse(context.Background()); err != nil {
		logger.Warn("Rebuilding keyword index: %v", err)
	}
	indexer = ix

	searchOpts := []services.SearchOption{services.WithSparseIndex(sparseIndex)}
	if _, ok := configStore.Get("hybrid_weight"); ok {
		searchOpts = append(searchOpts, services.WithHybridWeight(configStore.GetFloat("hybrid_weight")))
	}
	if configStore.GetBool("use_reranker") {
		searchOpts = append(searchOpts, services.WithReranker(httpapi.NewClient(httpapi.Config{
			BaseURL: configStore.GetString("rerank_url"),
			Model:   configStore.GetString("rerank_model"),
		})))
	}
	searcher = services.NewSearchService(store, embedder, vectors, searchOpts...)

	return nil
}

// buildEmbedder selects the embedding provider. Local Ollama is the default;
// set embed_provider = "openai" for the OpenAI API or compatible endpoints.
func buildEmbedder() (driven.EmbeddingService, error) {
	if configStore.GetString("embed_provider") == "openai" {
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     configStore.GetString("openai_api_key"),
			BaseURL:    configStore.GetString("openai_url"),
			Model:      configStore.GetString("embed_model"),
			Dimensions: configStore.GetInt("embed_dimensions"),
		})
	}
	return ollama.NewEmbeddingService(ollama.Config{
		BaseURL:    configStore.GetString("ollama_url"),
		Model:      configStore.GetString("embed_model"),
		Dimensions: configStore.GetInt("embed_dimensions"),
	}), nil
}

// dataDir resolves the index data directory from config, defaulting to
// ~/.snapidx/data.
func dataDir() string {
	if dir := configStore.GetString("data_dir"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".snapidx-data"
	}
	return filepath.Join(home, ".snapidx", "data")
}

// scanFolders reads the configured folders: scan_folders are walked
// recursively, scan_folders_flat only at their top level.
func scanFolders() []domain.ScanFolder {
	var folders []domain.ScanFolder
	for _, path := range configStore.GetStringSlice("scan_folders") {
		folders = append(folders, domain.ScanFolder{Path: path, Recursive: true})
	}
	for _, path := range configStore.GetStringSlice("scan_folders_flat") {
		folders = append(folders, domain.ScanFolder{Path: path, Recursive: false})
	}
	return folders
}

func closeApp() {
	if vectors != nil {
		if err := vectors.Close(); err != nil {
			logger.Warn("Closing vector index: %v", err)
		}
	}
	if embedder != nil {
		if err := embedder.Close(); err != nil {
			logger.Warn("Closing embedder: %v", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Warn("Closing content store: %v", err)
		}
	}
}
