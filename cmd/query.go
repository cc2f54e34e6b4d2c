package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"docquery/internal/config"
	"docquery/internal/documents"
	"docquery/internal/embeddings"
	"docquery/internal/index"
	"docquery/internal/index/store"
	"docquery/internal/llm"
	"docquery/internal/rag"
)

const defaultQuestion = "What is this document about?"

const (
	chunkWords   = 200
	chunkOverlap = 40
)

var (
	flagQueryDryRun     bool
	flagQueryEmbedModel string
	flagQueryLLMModel   string
	flagQueryDataDir    string
	flagQueryCacheDir   string
	flagQueryUseCache   bool
	flagQueryRebuild    bool
	flagQueryK          int
	flagQueryMinScore   float64
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a natural-language question about the documents",
	Args:  cobra.ArbitraryArgs,
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&flagQueryDryRun, "dry-run", false, "Load documents (and cache) only; never contact embedding or LLM backends")
	queryCmd.Flags().StringVar(&flagQueryEmbedModel, "embed-model", "", "Embedding model name (default from config)")
	queryCmd.Flags().StringVar(&flagQueryLLMModel, "llm-model", "", "Ollama model name (default from config)")
	queryCmd.Flags().StringVar(&flagQueryDataDir, "data-dir", "", "Directory holding source documents (default from config)")
	queryCmd.Flags().StringVar(&flagQueryCacheDir, "cache-dir", "", "Directory to store/load the cached index (default from config)")
	queryCmd.Flags().BoolVar(&flagQueryUseCache, "use-cache", false, "Attempt to load the index from cache and save it after building")
	queryCmd.Flags().BoolVar(&flagQueryRebuild, "rebuild", false, "Force rebuild of the index and overwrite the cache")
	queryCmd.Flags().IntVar(&flagQueryK, "k", 0, "Number of context chunks to retrieve (default from config)")
	queryCmd.Flags().Float64Var(&flagQueryMinScore, "min-score", 0, "Minimum cosine similarity for retrieved chunks")
	rootCmd.AddCommand(queryCmd)
}

// applyQueryFlags overlays explicitly set flags onto the loaded config.
func applyQueryFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("embed-model") {
		cfg.EmbedModel = flagQueryEmbedModel
	}
	if cmd.Flags().Changed("llm-model") {
		cfg.LLMModel = flagQueryLLMModel
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = flagQueryDataDir
	}
	if cmd.Flags().Changed("cache-dir") {
		cfg.CacheDir = flagQueryCacheDir
	}
	if cmd.Flags().Changed("k") {
		cfg.TopK = flagQueryK
	}
	if cmd.Flags().Changed("min-score") {
		cfg.MinScore = flagQueryMinScore
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	applyQueryFlags(cmd, cfg)

	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" {
		question = defaultQuestion
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := slog.Default()

	docs, err := documents.Load(cfg.DataDir)
	if err != nil {
		return err
	}
	log.Info("documents loaded", "dir", cfg.DataDir, "count", len(docs))

	chain := store.DefaultChain(log)

	var idx *index.Index
	if flagQueryUseCache && !flagQueryRebuild {
		cached, tier, err := chain.Load(ctx, cfg.CacheDir)
		if err != nil {
			log.Debug("no usable cached index", "dir", cfg.CacheDir, "error", err)
		} else {
			log.Info("index loaded from cache", "tier", tier, "chunks", len(cached.Chunks))
			idx = cached
		}
	}

	// Dry run reports what it found and stops before touching any model
	// backend.
	if flagQueryDryRun {
		printSection("Dry Run")
		if idx != nil {
			printOK("", fmt.Sprintf("cached index found in %s (%d chunks, model %s)",
				cfg.CacheDir, len(idx.Chunks), idx.Manifest.ModelID))
		} else if len(docs) > 0 {
			snippet := docs[0].Text
			if len(snippet) > 500 {
				snippet = snippet[:500]
			}
			printInfo("", fmt.Sprintf("first document snippet:\n%s", snippet))
		}
		printInfo("", fmt.Sprintf("document count: %d", len(docs)))
		return nil
	}

	embCfg, err := embeddings.LoadConfig(cfg)
	if err != nil {
		return err
	}
	prov, err := embeddings.NewFromConfig(embCfg)
	if err != nil {
		return err
	}

	if idx != nil && idx.Manifest.ModelID != prov.ModelID() {
		printWarn("", fmt.Sprintf("cached index was built with %s, provider is %s; rebuilding",
			idx.Manifest.ModelID, prov.ModelID()))
		idx = nil
	}

	if idx == nil {
		log.Info("building index from documents", "model", prov.ModelID())
		idx, err = index.Build(ctx, prov, docs, index.BuildOptions{
			ChunkWords:   chunkWords,
			ChunkOverlap: chunkOverlap,
			Normalize:    true,
		})
		if err != nil {
			return fmt.Errorf("cannot build index: %w", err)
		}

		if flagQueryUseCache {
			tier, err := chain.Save(ctx, idx, cfg.CacheDir)
			if err != nil {
				// A dead cache never blocks answering; the index stays
				// usable in memory for this run.
				printWarn("", fmt.Sprintf("failed to save index to cache: %v", err))
			} else {
				log.Info("index saved to cache", "tier", tier, "dir", cfg.CacheDir)
			}
		}
	}

	engine := &rag.Engine{
		Index:    idx,
		Embedder: prov,
		LLM: llm.NewOllama(llm.OllamaOptions{
			BaseURL:       cfg.OllamaURL,
			Model:         cfg.LLMModel,
			ContextWindow: 8000,
		}),
		TopK:     cfg.TopK,
		MinScore: cfg.MinScore,
	}

	log.Info("running query", "question", question, "model", cfg.LLMModel)
	answer, hits, err := engine.Answer(ctx, question)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	if flagVerbose {
		printSection("Sources")
		for _, h := range hits {
			printInfo("", fmt.Sprintf("%s (score %.3f)", h.Chunk.ID, h.Score))
		}
	}
	return nil
}
