package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"docquery/internal/index"
)

// Chain tries an ordered list of stores until one succeeds.
//
// The chain itself holds no locks and assumes uncontended access to the cache
// directory; callers that rebuild concurrently must coordinate externally.
type Chain struct {
	stores []Store
	log    *slog.Logger
}

// NewChain builds a chain over the given stores, tried in argument order.
func NewChain(logger *slog.Logger, stores ...Store) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{stores: stores, log: logger}
}

// DefaultChain returns the standard three-tier chain: the structured multi-file
// format, then the SQLite single-file format, then the gob snapshot.
func DefaultChain(logger *slog.Logger) *Chain {
	return NewChain(logger, NewStructured(), NewSQLite(), NewSnapshot())
}

// Save writes idx into dir using the first tier that succeeds and returns that
// tier's name. The directory is created before any tier writes to it. A failed
// tier may leave partial files behind; there is no cross-tier rollback.
func (c *Chain) Save(ctx context.Context, idx *index.Index, dir string) (string, error) {
	if idx == nil {
		return "", fmt.Errorf("cannot save nil index")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create cache dir %s: %w", dir, err)
	}

	var tierErrs []error
	for _, s := range c.stores {
		err := s.Save(ctx, idx, dir)
		if err == nil {
			c.log.Debug("index saved", "tier", s.Name(), "dir", dir)
			return s.Name(), nil
		}
		if errors.Is(err, ErrUnavailable) {
			c.log.Debug("save tier unavailable", "tier", s.Name())
		} else {
			c.log.Warn("save tier failed, falling through", "tier", s.Name(), "error", err)
		}
		tierErrs = append(tierErrs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return "", &ExhaustedError{Op: "save", Errs: tierErrs}
}

// Load reconstructs an index from dir using the first tier that succeeds and
// returns it with that tier's name. A missing cache directory makes every tier
// unavailable.
func (c *Chain) Load(ctx context.Context, dir string) (*index.Index, string, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, "", &ExhaustedError{
				Op:   "load",
				Errs: []error{fmt.Errorf("cache dir %s: %w", dir, ErrUnavailable)},
			}
		}
		return nil, "", fmt.Errorf("cannot stat cache dir %s: %w", dir, err)
	}

	var tierErrs []error
	for _, s := range c.stores {
		idx, err := s.Load(ctx, dir)
		if err == nil {
			c.log.Debug("index loaded", "tier", s.Name(), "dir", dir, "chunks", len(idx.Chunks))
			return idx, s.Name(), nil
		}
		if errors.Is(err, ErrUnavailable) {
			c.log.Debug("load tier unavailable", "tier", s.Name())
		} else {
			c.log.Warn("load tier failed, falling through", "tier", s.Name(), "error", err)
		}
		tierErrs = append(tierErrs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return nil, "", &ExhaustedError{Op: "load", Errs: tierErrs}
}

// Probe reports, per tier, whether a load from dir would succeed. Used by the
// status command.
func (c *Chain) Probe(ctx context.Context, dir string) map[string]error {
	out := make(map[string]error, len(c.stores))
	for _, s := range c.stores {
		_, err := s.Load(ctx, dir)
		out[s.Name()] = err
	}
	return out
}

// Tiers returns the tier names in chain order.
func (c *Chain) Tiers() []string {
	out := make([]string, 0, len(c.stores))
	for _, s := range c.stores {
		out = append(out, s.Name())
	}
	return out
}
