package store

import (
	"context"
	"encoding/gob"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := testIndex()
	s := NewSnapshot()

	if err := s.Save(context.Background(), want, dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestSnapshot_MissingFileIsUnavailable(t *testing.T) {
	_, err := NewSnapshot().Load(context.Background(), t.TempDir())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSnapshot_CorruptFileIsFailure(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.gob"), []byte("not gob data"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewSnapshot().Load(context.Background(), dir)
	if err == nil {
		t.Fatalf("expected error for corrupt snapshot")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Fatalf("corrupt snapshot is a failure, not unavailability: %v", err)
	}
}

func TestSnapshot_FormatVersionMismatchRejected(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "index.gob"))
	if err != nil {
		t.Fatal(err)
	}
	payload := snapshotPayload{
		FormatVersion: snapshotFormatVersion + 1,
		Manifest:      testIndex().Manifest,
		Chunks:        testIndex().Chunks,
		Vectors:       testIndex().Vectors,
	}
	if err := gob.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		t.Fatal(err)
	}
	_ = f.Close()

	if _, err := NewSnapshot().Load(context.Background(), dir); err == nil {
		t.Fatalf("expected error for future format version")
	}
}

func TestSnapshot_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := NewSnapshot().Save(context.Background(), testIndex(), dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "index.gob" {
		t.Fatalf("expected only index.gob, got %v", entries)
	}
}

func TestSnapshot_SaveOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshot()

	first := testIndex()
	if err := s.Save(context.Background(), first, dir); err != nil {
		t.Fatal(err)
	}
	second := testIndex()
	second.Manifest.CreatedAt = "2026-08-02T00:00:00Z"
	if err := s.Save(context.Background(), second, dir); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.Manifest.CreatedAt != "2026-08-02T00:00:00Z" {
		t.Fatalf("snapshot not overwritten: %+v", got.Manifest)
	}
}
