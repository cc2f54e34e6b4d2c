package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"docquery/internal/documents"
)

// CanonicalText returns the canonical text used for embeddings generation.
func CanonicalText(c documents.Chunk) string {
	return strings.TrimSpace(c.Text)
}

// TextHash returns a sha256 hash (hex) of the canonical text.
func TextHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// ChunkID returns the stable identifier for a chunk of a document.
func ChunkID(docID string, seq int) string {
	return fmt.Sprintf("%s#%d", docID, seq)
}
