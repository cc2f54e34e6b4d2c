package documents

import "strings"

// Chunker splits documents into fixed-size word chunks with overlap.
type Chunker struct {
	maxWords int
	overlap  int
}

// NewChunker creates a chunker. Non-positive maxWords falls back to 200 words;
// an overlap at or above maxWords is clamped to a quarter of it.
func NewChunker(maxWords, overlap int) *Chunker {
	if maxWords <= 0 {
		maxWords = 200
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxWords {
		overlap = maxWords / 4
	}
	return &Chunker{maxWords: maxWords, overlap: overlap}
}

// Split chunks every document and returns the chunks in document order.
func (c *Chunker) Split(docs []Document) []Chunk {
	var out []Chunk
	for _, d := range docs {
		out = append(out, c.splitOne(d)...)
	}
	return out
}

func (c *Chunker) splitOne(d Document) []Chunk {
	words := strings.Fields(d.Text)
	if len(words) == 0 {
		return nil
	}

	step := c.maxWords - c.overlap
	if step <= 0 {
		step = 1
	}

	var chunks []Chunk
	for i := 0; i < len(words); i += step {
		end := i + c.maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{
			DocID: d.ID,
			Seq:   len(chunks),
			Text:  strings.Join(words[i:end], " "),
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}
