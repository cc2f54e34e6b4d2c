package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"docquery/internal/index"
)

const sqliteFile = "index.db"

// SQLite is the second tier: the whole index in a single SQLite database file.
type SQLite struct{}

// NewSQLite returns the SQLite single-file store.
func NewSQLite() *SQLite {
	return &SQLite{}
}

func (s *SQLite) Name() string { return "sqlite" }

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS manifest (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		index_version INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		model_id TEXT NOT NULL,
		dim INTEGER NOT NULL,
		normalize INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS chunks (
		pos INTEGER PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		doc_id TEXT NOT NULL,
		doc_path TEXT NOT NULL,
		seq INTEGER NOT NULL,
		text TEXT NOT NULL,
		text_hash TEXT NOT NULL,
		embedding BLOB NOT NULL
	);
`

func (s *SQLite) open(dir string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", filepath.Join(dir, sqliteFile))
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma failed: %w", err)
		}
	}
	return db, nil
}

func (s *SQLite) Save(ctx context.Context, idx *index.Index, dir string) error {
	m := idx.Manifest
	if m.Dim <= 0 {
		return fmt.Errorf("invalid dim: %d", m.Dim)
	}
	if len(idx.Vectors) != len(idx.Chunks)*m.Dim {
		return fmt.Errorf("vector length mismatch: got %d want %d", len(idx.Vectors), len(idx.Chunks)*m.Dim)
	}

	db, err := s.open(dir)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Replace whatever index was stored before.
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM manifest"); err != nil {
		return err
	}

	normalize := 0
	if m.Normalize {
		normalize = 1
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO manifest (id, index_version, created_at, model_id, dim, normalize) VALUES (1, ?, ?, ?, ?, ?)",
		m.IndexVersion, m.CreatedAt, m.ModelID, m.Dim, normalize); err != nil {
		return fmt.Errorf("cannot write manifest row: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (pos, id, doc_id, doc_path, seq, text, text_hash, embedding) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range idx.Chunks {
		blob := encodeVector(idx.Vector(i))
		if _, err := stmt.ExecContext(ctx, i, c.ID, c.DocID, c.DocPath, c.Seq, c.Text, c.TextHash, blob); err != nil {
			return fmt.Errorf("cannot write chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLite) Load(ctx context.Context, dir string) (*index.Index, error) {
	path := filepath.Join(dir, sqliteFile)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no database at %s: %w", path, ErrUnavailable)
		}
		return nil, fmt.Errorf("cannot stat database %s: %w", path, err)
	}

	db, err := s.open(dir)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var (
		m         index.Manifest
		normalize int
	)
	row := db.QueryRowContext(ctx,
		"SELECT index_version, created_at, model_id, dim, normalize FROM manifest WHERE id = 1")
	if err := row.Scan(&m.IndexVersion, &m.CreatedAt, &m.ModelID, &m.Dim, &normalize); err != nil {
		return nil, fmt.Errorf("cannot read manifest row: %w", err)
	}
	m.Normalize = normalize != 0
	if m.Dim <= 0 {
		return nil, fmt.Errorf("invalid dim in manifest row: %d", m.Dim)
	}

	rows, err := db.QueryContext(ctx,
		"SELECT id, doc_id, doc_path, seq, text, text_hash, embedding FROM chunks ORDER BY pos")
	if err != nil {
		return nil, fmt.Errorf("cannot read chunks: %w", err)
	}
	defer rows.Close()

	var (
		chunks  []index.ChunkEntry
		vectors []float32
	)
	for rows.Next() {
		var (
			c    index.ChunkEntry
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.DocID, &c.DocPath, &c.Seq, &c.Text, &c.TextHash, &blob); err != nil {
			return nil, fmt.Errorf("cannot scan chunk row: %w", err)
		}
		v, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		if len(v) != m.Dim {
			return nil, fmt.Errorf("chunk %s: embedding dim mismatch: got %d want %d", c.ID, len(v), m.Dim)
		}
		chunks = append(chunks, c)
		vectors = append(vectors, v...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cannot iterate chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("database holds no chunks")
	}

	return &index.Index{Manifest: m, Chunks: chunks, Vectors: vectors}, nil
}

func encodeVector(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedding blob size is not multiple of 4 bytes: %d", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}
