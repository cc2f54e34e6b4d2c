package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestSQLite_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := testIndex()
	s := NewSQLite()

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

func TestSQLite_MissingFileIsUnavailable(t *testing.T) {
	_, err := NewSQLite().Load(context.Background(), t.TempDir())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSQLite_SaveOverwritesPreviousIndex(t *testing.T) {
	dir := t.TempDir()
	s := NewSQLite()

	first := testIndex()
	if err := s.Save(context.Background(), first, dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := testIndex()
	second.Chunks = second.Chunks[:1]
	second.Vectors = second.Vectors[:3]
	second.Manifest.CreatedAt = "2026-08-02T00:00:00Z"
	if err := s.Save(context.Background(), second, dir); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := s.Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Chunks) != 1 {
		t.Fatalf("expected old rows replaced, got %d chunks", len(got.Chunks))
	}
	if got.Manifest.CreatedAt != "2026-08-02T00:00:00Z" {
		t.Fatalf("manifest not replaced: %+v", got.Manifest)
	}
}

func TestVectorBlobCodec(t *testing.T) {
	v := []float32{1.5, -2.25, 0, 3.125}
	got, err := decodeVector(encodeVector(v))
	if err != nil {
		t.Fatalf("decodeVector: %v", err)
	}
	if !reflect.DeepEqual(got, v) {
		t.Fatalf("codec mismatch: got %v want %v", got, v)
	}

	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for misaligned blob")
	}
}
