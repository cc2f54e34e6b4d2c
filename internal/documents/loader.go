package documents

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Load scans dataDir recursively for .txt and .md files and returns one
// Document per file, sorted by ID.
//
// Markdown files may carry YAML frontmatter; it is stripped from the body and
// its "name" key (if any) becomes the document name. Text is NFC-normalized so
// embeddings of visually identical content hash identically.
func Load(dataDir string) ([]Document, error) {
	info, err := os.Stat(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("data directory does not exist: %s", dataDir)
		}
		return nil, fmt.Errorf("cannot stat data directory %s: %w", dataDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data path is not a directory: %s", dataDir)
	}

	var out []Document
	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dataDir {
				return fs.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext != ".txt" && ext != ".md" {
			return nil
		}

		rel, err := filepath.Rel(dataDir, path)
		if err != nil {
			return err
		}

		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}
		h, body := splitFrontmatter(string(b))

		name := strings.TrimSpace(h["name"])
		if name == "" {
			name = strings.TrimSuffix(d.Name(), ext)
		}

		relSlash := filepath.ToSlash(rel)
		out = append(out, Document{
			ID:   strings.TrimSuffix(relSlash, ext),
			Path: relSlash,
			Name: name,
			Text: norm.NFC.String(body),
		})
		return nil
	}

	if err := filepath.WalkDir(dataDir, walkFn); err != nil {
		return nil, fmt.Errorf("cannot scan data directory: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
