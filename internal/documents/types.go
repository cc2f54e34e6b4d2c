package documents

// Document represents one loaded source file.
type Document struct {
	ID   string // relative path with slashes, extension stripped
	Path string // relative path with slashes
	Name string // frontmatter name or file base name
	Text string // body text, frontmatter removed, NFC-normalized
}

// Chunk is an indexable slice of a document.
type Chunk struct {
	DocID string
	Seq   int
	Text  string
}
