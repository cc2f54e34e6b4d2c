// Package store persists a vector index to a cache directory through an
// ordered chain of storage tiers.
//
// Each tier is a Store implementation with its own on-disk format. Saving and
// loading walk the chain in a fixed preference order and stop at the first
// tier that succeeds; a tier that is not applicable for the given directory
// reports ErrUnavailable and is skipped, while a tier that is present but
// broken reports a real error and the chain falls through to the next one.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docquery/internal/index"
)

// ErrUnavailable marks a tier as not applicable: its files are absent or the
// tier is disabled. It is distinct from a tier that exists but failed.
var ErrUnavailable = errors.New("persistence tier unavailable")

// Store is one persistence tier.
type Store interface {
	// Name identifies the tier in logs and status output.
	Name() string

	// Save writes idx into dir in this tier's format. The directory exists
	// when Save is called.
	Save(ctx context.Context, idx *index.Index, dir string) error

	// Load reconstructs an index from dir. It returns ErrUnavailable
	// (possibly wrapped) when this tier's files are not present.
	Load(ctx context.Context, dir string) (*index.Index, error)
}

// ExhaustedError reports that every tier in the chain was tried without
// success. It wraps the per-tier errors.
type ExhaustedError struct {
	Op   string // "save" or "load"
	Errs []error
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("all persistence tiers exhausted during %s: %s", e.Op, strings.Join(parts, "; "))
}

func (e *ExhaustedError) Unwrap() []error { return e.Errs }
