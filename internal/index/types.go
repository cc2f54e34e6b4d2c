package index

// Manifest describes a vector index and how to interpret it.
type Manifest struct {
	IndexVersion int    `json:"index_version"`
	CreatedAt    string `json:"created_at"`
	ModelID      string `json:"model_id"`
	Dim          int    `json:"dim"`
	Normalize    bool   `json:"normalize"`
}

// ChunkEntry represents one indexed document chunk.
type ChunkEntry struct {
	ID       string `json:"id"`
	DocID    string `json:"doc_id"`
	DocPath  string `json:"doc_path"`
	Seq      int    `json:"seq"`
	Text     string `json:"text"`
	TextHash string `json:"text_hash"`
}

// Index is an in-memory vector index over document chunks.
//
// Vectors is row-major: the vector for Chunks[i] occupies
// Vectors[i*Manifest.Dim : (i+1)*Manifest.Dim].
type Index struct {
	Manifest Manifest
	Chunks   []ChunkEntry
	Vectors  []float32
}

// Vector returns the embedding for chunk i.
func (x *Index) Vector(i int) []float32 {
	d := x.Manifest.Dim
	return x.Vectors[i*d : (i+1)*d]
}

// Result is one retrieval hit.
type Result struct {
	Chunk ChunkEntry
	Score float64
}
