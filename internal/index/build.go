package index

import (
	"context"
	"fmt"
	"time"

	"docquery/internal/documents"
	"docquery/internal/embeddings"
)

// IndexVersion is the current on-disk/in-memory index format version.
const IndexVersion = 1

// BuildOptions controls index building.
type BuildOptions struct {
	// ChunkWords and ChunkOverlap configure document chunking.
	ChunkWords   int
	ChunkOverlap int
	// Normalize L2-normalizes every stored vector (and, by contract, query
	// vectors at search time).
	Normalize bool
	// Previous, when set, allows reuse of vectors whose chunk text hash is
	// unchanged, skipping re-embedding.
	Previous *Index
}

// Build chunks docs, embeds every chunk with prov, and returns the assembled
// index. When opts.Previous holds a compatible index (same model ID), vectors
// for unchanged chunks are carried over instead of re-embedded.
func Build(ctx context.Context, prov embeddings.Provider, docs []documents.Document, opts BuildOptions) (*Index, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents to index")
	}

	chunker := documents.NewChunker(opts.ChunkWords, opts.ChunkOverlap)
	chunks := chunker.Split(docs)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("documents contain no indexable text")
	}

	pathByDoc := make(map[string]string, len(docs))
	for _, d := range docs {
		pathByDoc[d.ID] = d.Path
	}

	// Vectors are only reusable when they were produced the same way: same
	// model and same normalization state. Mixing raw and normalized vectors
	// would silently skew cosine scores.
	reuse := map[string]ChunkEntry{}
	reuseVec := map[string][]float32{}
	prev := opts.Previous
	if prev != nil && prev.Manifest.ModelID == prov.ModelID() && prev.Manifest.Normalize == opts.Normalize {
		for i, ce := range prev.Chunks {
			start := i * prev.Manifest.Dim
			end := start + prev.Manifest.Dim
			if start >= 0 && end <= len(prev.Vectors) {
				reuse[ce.ID] = ce
				v := make([]float32, prev.Manifest.Dim)
				copy(v, prev.Vectors[start:end])
				reuseVec[ce.ID] = v
			}
		}
	}

	var (
		entries []ChunkEntry
		vectors []float32
		dim     int
	)

	for _, c := range chunks {
		text := CanonicalText(c)
		h := TextHash(text)
		id := ChunkID(c.DocID, c.Seq)

		if prior, ok := reuse[id]; ok {
			if prior.TextHash == h && prior.TextHash != "" {
				if v, ok := reuseVec[id]; ok && (dim == 0 || len(v) == dim) {
					entries = append(entries, prior)
					vectors = append(vectors, v...)
					if dim == 0 {
						dim = len(v)
					}
					continue
				}
			}
		}

		emb, err := prov.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("cannot embed chunk %s: %w", id, err)
		}
		if dim == 0 {
			dim = len(emb)
		}
		if len(emb) != dim {
			return nil, fmt.Errorf("embedding dim changed mid-run: got %d want %d", len(emb), dim)
		}
		if opts.Normalize {
			emb = NormalizeL2(emb)
		}

		entries = append(entries, ChunkEntry{
			ID:       id,
			DocID:    c.DocID,
			DocPath:  pathByDoc[c.DocID],
			Seq:      c.Seq,
			Text:     text,
			TextHash: h,
		})
		vectors = append(vectors, emb...)
	}

	manifest := Manifest{
		IndexVersion: IndexVersion,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		ModelID:      prov.ModelID(),
		Dim:          dim,
		Normalize:    opts.Normalize,
	}

	return &Index{Manifest: manifest, Chunks: entries, Vectors: vectors}, nil
}
