package store

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"docquery/internal/index"
)

const (
	manifestFile = "index_manifest.json"
	chunksFile   = "chunks.jsonl"
	vectorsFile  = "vectors.f32"
)

// Structured is the preferred tier: the index spread across a manifest JSON
// file, a JSONL chunk file, and a raw little-endian float32 vector file.
type Structured struct{}

// NewStructured returns the structured multi-file store.
func NewStructured() *Structured {
	return &Structured{}
}

func (s *Structured) Name() string { return "structured" }

func (s *Structured) Save(_ context.Context, idx *index.Index, dir string) error {
	m := idx.Manifest
	if m.Dim <= 0 {
		return fmt.Errorf("invalid dim: %d", m.Dim)
	}
	if len(idx.Chunks) == 0 {
		return fmt.Errorf("no chunks to write")
	}
	if len(idx.Vectors) != len(idx.Chunks)*m.Dim {
		return fmt.Errorf("vector length mismatch: got %d want %d", len(idx.Vectors), len(idx.Chunks)*m.Dim)
	}

	mb, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), mb, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}

	cf, err := os.Create(filepath.Join(dir, chunksFile))
	if err != nil {
		return fmt.Errorf("cannot create chunks file: %w", err)
	}
	bw := bufio.NewWriter(cf)
	for _, c := range idx.Chunks {
		line, err := json.Marshal(c)
		if err != nil {
			_ = cf.Close()
			return err
		}
		if _, err := bw.Write(line); err != nil {
			_ = cf.Close()
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			_ = cf.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		_ = cf.Close()
		return err
	}
	if err := cf.Close(); err != nil {
		return err
	}

	vf, err := os.Create(filepath.Join(dir, vectorsFile))
	if err != nil {
		return fmt.Errorf("cannot create vectors file: %w", err)
	}
	if err := binary.Write(vf, binary.LittleEndian, idx.Vectors); err != nil {
		_ = vf.Close()
		return fmt.Errorf("cannot write vectors: %w", err)
	}
	return vf.Close()
}

func (s *Structured) Load(_ context.Context, dir string) (*index.Index, error) {
	manifestPath := filepath.Join(dir, manifestFile)
	b, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no manifest at %s: %w", manifestPath, ErrUnavailable)
		}
		return nil, fmt.Errorf("cannot read manifest %s: %w", manifestPath, err)
	}
	var m index.Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON %s: %w", manifestPath, err)
	}
	if m.Dim <= 0 {
		return nil, fmt.Errorf("invalid dim in manifest: %d", m.Dim)
	}

	chunks, err := loadChunks(filepath.Join(dir, chunksFile))
	if err != nil {
		return nil, err
	}
	vectors, err := loadVectors(filepath.Join(dir, vectorsFile), len(chunks), m.Dim)
	if err != nil {
		return nil, err
	}

	return &index.Index{Manifest: m, Chunks: chunks, Vectors: vectors}, nil
}

func loadChunks(path string) ([]index.ChunkEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open chunks file %s: %w", path, err)
	}
	defer f.Close()

	var out []index.ChunkEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e index.ChunkEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("invalid chunks JSONL %s: %w", path, err)
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read chunks file %s: %w", path, err)
	}
	return out, nil
}

func loadVectors(path string, nChunks, dim int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open vector file %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat vector file %s: %w", path, err)
	}
	if st.Size()%4 != 0 {
		return nil, fmt.Errorf("vector file size is not multiple of 4 bytes: %d", st.Size())
	}

	expected := int64(nChunks * dim * 4)
	if expected != st.Size() {
		return nil, fmt.Errorf("vector file size mismatch: got %d want %d (chunks=%d dim=%d)", st.Size(), expected, nChunks, dim)
	}

	out := make([]float32, nChunks*dim)
	if err := binary.Read(io.LimitReader(f, expected), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("cannot read vectors from %s: %w", path, err)
	}
	return out, nil
}
