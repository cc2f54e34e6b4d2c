package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"docquery/internal/config"
	"docquery/internal/documents"
	"docquery/internal/embeddings"
	"docquery/internal/index"
	"docquery/internal/index/store"
)

var (
	flagIndexEmbedModel string
	flagIndexDataDir    string
	flagIndexCacheDir   string
	flagIndexForce      bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or update the cached index for the document directory",
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&flagIndexEmbedModel, "embed-model", "", "Embedding model name (default from config)")
	indexCmd.Flags().StringVar(&flagIndexDataDir, "data-dir", "", "Directory holding source documents (default from config)")
	indexCmd.Flags().StringVar(&flagIndexCacheDir, "cache-dir", "", "Directory to store the cached index (default from config)")
	indexCmd.Flags().BoolVar(&flagIndexForce, "force", false, "Re-embed everything even if chunk texts are unchanged")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	if cmd.Flags().Changed("embed-model") {
		cfg.EmbedModel = flagIndexEmbedModel
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = flagIndexDataDir
	}
	if cmd.Flags().Changed("cache-dir") {
		cfg.CacheDir = flagIndexCacheDir
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := slog.Default()

	// The store chain itself is lock-free; concurrent rebuilds of the same
	// cache are serialized here instead.
	_, release, err := acquireCacheLock(cfg.CacheDir, 10*time.Second)
	if err != nil {
		return err
	}
	defer release()

	docs, err := documents.Load(cfg.DataDir)
	if err != nil {
		return err
	}
	printInfo("", fmt.Sprintf("loaded %d document(s) from %s", len(docs), cfg.DataDir))

	embCfg, err := embeddings.LoadConfig(cfg)
	if err != nil {
		return err
	}
	prov, err := embeddings.NewFromConfig(embCfg)
	if err != nil {
		return err
	}

	chain := store.DefaultChain(log)

	// Reuse vectors for unchanged chunks unless forced.
	var previous *index.Index
	if !flagIndexForce {
		if cached, tier, err := chain.Load(ctx, cfg.CacheDir); err == nil {
			log.Debug("previous index loaded for incremental build", "tier", tier)
			previous = cached
		}
	}

	idx, err := index.Build(ctx, prov, docs, index.BuildOptions{
		ChunkWords:   chunkWords,
		ChunkOverlap: chunkOverlap,
		Normalize:    true,
		Previous:     previous,
	})
	if err != nil {
		return fmt.Errorf("cannot build index: %w", err)
	}

	tier, err := chain.Save(ctx, idx, cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("cannot save index: %w", err)
	}
	printOK("", fmt.Sprintf("indexed %d chunk(s) into %s via %s tier", len(idx.Chunks), cfg.CacheDir, tier))
	return nil
}

// acquireCacheLock obtains an exclusive lock guarding rebuilds of cacheDir.
func acquireCacheLock(cacheDir string, timeout time.Duration) (*flock.Flock, func(), error) {
	lockPath := filepath.Clean(cacheDir) + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, func() {}, fmt.Errorf("cannot create lock dir: %w", err)
	}
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, func() {}, fmt.Errorf("cannot acquire cache lock: %w", err)
		}
		if locked {
			return l, func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, func() {}, fmt.Errorf("another indexing run is in progress (lock: %s)", lockPath)
		}
		time.Sleep(200 * time.Millisecond)
	}
}
