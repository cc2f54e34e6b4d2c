package store

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"docquery/internal/index"
)

const snapshotFile = "index.gob"

// snapshotFormatVersion is bumped whenever the gob payload shape changes;
// older snapshots are rejected rather than misread.
const snapshotFormatVersion = 1

type snapshotPayload struct {
	FormatVersion int
	Manifest      index.Manifest
	Chunks        []index.ChunkEntry
	Vectors       []float32
}

// Snapshot is the last-resort tier: the whole index gob-encoded into a single
// versioned file.
type Snapshot struct{}

// NewSnapshot returns the gob snapshot store.
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

func (s *Snapshot) Name() string { return "snapshot" }

func (s *Snapshot) Save(_ context.Context, idx *index.Index, dir string) error {
	// Write to a temp file in the same directory, then rename into place, so
	// a crash mid-write never leaves a truncated snapshot behind.
	tf, err := os.CreateTemp(dir, "index-*.gob.tmp")
	if err != nil {
		return fmt.Errorf("cannot create temp snapshot: %w", err)
	}
	tmpName := tf.Name()

	payload := snapshotPayload{
		FormatVersion: snapshotFormatVersion,
		Manifest:      idx.Manifest,
		Chunks:        idx.Chunks,
		Vectors:       idx.Vectors,
	}
	if err := gob.NewEncoder(tf).Encode(payload); err != nil {
		_ = tf.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("cannot encode snapshot: %w", err)
	}
	if err := tf.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(dir, snapshotFile)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cannot move snapshot into place: %w", err)
	}
	return nil
}

func (s *Snapshot) Load(_ context.Context, dir string) (*index.Index, error) {
	path := filepath.Join(dir, snapshotFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no snapshot at %s: %w", path, ErrUnavailable)
		}
		return nil, fmt.Errorf("cannot open snapshot %s: %w", path, err)
	}
	defer f.Close()

	var payload snapshotPayload
	if err := gob.NewDecoder(f).Decode(&payload); err != nil {
		return nil, fmt.Errorf("cannot decode snapshot %s: %w", path, err)
	}
	if payload.FormatVersion != snapshotFormatVersion {
		return nil, fmt.Errorf("snapshot format version mismatch: got %d want %d", payload.FormatVersion, snapshotFormatVersion)
	}
	if payload.Manifest.Dim <= 0 {
		return nil, fmt.Errorf("invalid dim in snapshot: %d", payload.Manifest.Dim)
	}
	if len(payload.Vectors) != len(payload.Chunks)*payload.Manifest.Dim {
		return nil, fmt.Errorf("snapshot vector length mismatch: got %d want %d",
			len(payload.Vectors), len(payload.Chunks)*payload.Manifest.Dim)
	}

	return &index.Index{
		Manifest: payload.Manifest,
		Chunks:   payload.Chunks,
		Vectors:  payload.Vectors,
	}, nil
}
