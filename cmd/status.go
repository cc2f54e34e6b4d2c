package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"docquery/internal/config"
	"docquery/internal/index/store"
)

var flagStatusCacheDir string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which persistence tiers hold a loadable index",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&flagStatusCacheDir, "cache-dir", "", "Cache directory to inspect (default from config)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	if cmd.Flags().Changed("cache-dir") {
		cfg.CacheDir = flagStatusCacheDir
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	chain := store.DefaultChain(slog.Default())
	probes := chain.Probe(ctx, cfg.CacheDir)

	printSection("Cache: " + cfg.CacheDir)
	healthy := 0
	for _, tier := range chain.Tiers() {
		err := probes[tier]
		switch {
		case err == nil:
			printOK(tier, "loadable index present")
			healthy++
		case errors.Is(err, store.ErrUnavailable):
			printMiss(tier, "no index in this format")
		default:
			printErr(tier, fmt.Sprintf("present but unreadable: %v", err))
		}
	}

	if healthy == 0 {
		printInfo("", "no loadable cache; the next query will rebuild from documents")
	}

	idx, tier, err := chain.Load(ctx, cfg.CacheDir)
	if err == nil {
		printInfo("", fmt.Sprintf("effective tier: %s (%d chunks, model %s, created %s)",
			tier, len(idx.Chunks), idx.Manifest.ModelID, idx.Manifest.CreatedAt))
	}
	return nil
}
