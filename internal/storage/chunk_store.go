package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/seg-flt/hdrscan/internal/assembler"
)

// ChunkStore persists chunk records in SQLite with an FTS5 companion table
// for keyword search. Writes are transactional: a replace either lands
// completely or not at all.
type ChunkStore struct {
	db *sql.DB
}

const chunkSchema = `
CREATE TABLE IF NOT EXISTS chunks (
	chunk_id            TEXT PRIMARY KEY,
	file_path           TEXT NOT NULL,
	language            TEXT NOT NULL,
	content             TEXT NOT NULL,
	units               TEXT NOT NULL,
	conditional_context TEXT NOT NULL,
	created_at          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_file_path ON chunks(file_path);
`

// FTS5 upserts are delete-then-insert; the virtual table has no usable
// INSERT OR REPLACE.
const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
	chunk_id UNINDEXED,
	content,
	tokenize = "unicode61 remove_diacritics 0 tokenchars '_'"
)
`

// NewChunkStore opens or creates the chunk database at dbPath, creating
// parent directories and the schema as needed.
func NewChunkStore(dbPath string) (*ChunkStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(chunkSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := db.Exec(ftsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create FTS5 index: %w", err)
	}
	return &ChunkStore{db: db}, nil
}

func (s *ChunkStore) Close() error {
	return s.db.Close()
}

// ReplaceAll clears the store and writes every record. Use for full
// rebuilds.
func (s *ChunkStore) ReplaceAll(records []assembler.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // safe after commit

	if _, err := sq.Delete("chunks").RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM chunks_fts"); err != nil {
		return fmt.Errorf("failed to clear FTS5 index: %w", err)
	}

	if err := insertRecords(tx, records); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReplaceFiles drops the stored chunks of each file appearing in records
// and inserts the new ones. Use for incremental updates.
func (s *ChunkStore) ReplaceFiles(records []assembler.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	files := make(map[string]bool)
	for _, rec := range records {
		files[rec.Metadata.Filepath] = true
	}
	for filePath := range files {
		rows, err := sq.Select("chunk_id").From("chunks").
			Where(sq.Eq{"file_path": filePath}).
			RunWith(tx).Query()
		if err != nil {
			return fmt.Errorf("failed to list chunks for %s: %w", filePath, err)
		}
		var stale []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan chunk id: %w", err)
			}
			stale = append(stale, id)
		}
		if err := rows.Close(); err != nil {
			return err
		}

		for _, id := range stale {
			if _, err := tx.Exec("DELETE FROM chunks_fts WHERE chunk_id = ?", id); err != nil {
				return fmt.Errorf("failed to delete FTS5 entry %s: %w", id, err)
			}
		}
		if _, err := sq.Delete("chunks").Where(sq.Eq{"file_path": filePath}).RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("failed to delete chunks for %s: %w", filePath, err)
		}
	}

	if err := insertRecords(tx, records); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertRecords(tx *sql.Tx, records []assembler.Record) error {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range records {
		units, err := json.Marshal(rec.Metadata.ChunkUnits)
		if err != nil {
			return fmt.Errorf("failed to marshal units for %s: %w", rec.ID, err)
		}
		cond, err := json.Marshal(rec.Metadata.CondContext)
		if err != nil {
			return fmt.Errorf("failed to marshal conditional context for %s: %w", rec.ID, err)
		}

		// Overlapping chunks share the ID of their first unit, so a batch
		// can carry the same ID twice; the later, longer chunk wins.
		_, err = sq.Insert("chunks").
			Options("OR REPLACE").
			Columns("chunk_id", "file_path", "language", "content", "units", "conditional_context", "created_at").
			Values(rec.ID, rec.Metadata.Filepath, rec.Metadata.Language, rec.Content, string(units), string(cond), now).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", rec.ID, err)
		}

		if _, err := tx.Exec("DELETE FROM chunks_fts WHERE chunk_id = ?", rec.ID); err != nil {
			return fmt.Errorf("failed to delete FTS5 entry %s: %w", rec.ID, err)
		}
		if _, err := tx.Exec("INSERT INTO chunks_fts (chunk_id, content) VALUES (?, ?)", rec.ID, rec.Content); err != nil {
			return fmt.Errorf("failed to insert FTS5 entry %s: %w", rec.ID, err)
		}
	}
	return nil
}

// Count returns the number of stored chunks.
func (s *ChunkStore) Count() (int, error) {
	var n int
	err := sq.Select("COUNT(*)").From("chunks").RunWith(s.db).QueryRow().Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// Get loads one record by chunk ID.
func (s *ChunkStore) Get(id string) (*assembler.Record, error) {
	row := sq.Select("chunk_id", "file_path", "language", "content", "units", "conditional_context").
		From("chunks").
		Where(sq.Eq{"chunk_id": id}).
		RunWith(s.db).
		QueryRow()
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("chunk %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FTSResult is one keyword search hit with its BM25 rank and a highlighted
// snippet.
type FTSResult struct {
	Record  assembler.Record
	Rank    float64
	Snippet string
}

// Search runs an FTS5 query over chunk content, most relevant first. The
// query accepts FTS5 syntax: keywords, quoted phrases, AND/OR/NOT and
// trailing-* prefixes.
func (s *ChunkStore) Search(query string, limit int) ([]FTSResult, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(`
		SELECT
			chunks.chunk_id,
			chunks.file_path,
			chunks.language,
			chunks.content,
			chunks.units,
			chunks.conditional_context,
			rank,
			snippet(chunks_fts, 1, '<mark>', '</mark>', '...', 32)
		FROM chunks_fts
		JOIN chunks ON chunks.chunk_id = chunks_fts.chunk_id
		WHERE chunks_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("FTS5 query failed: %w", err)
	}
	defer rows.Close()

	var results []FTSResult
	for rows.Next() {
		var (
			id, filePath, language, content, units, cond string
			rank                                         float64
			snippet                                      string
		)
		if err := rows.Scan(&id, &filePath, &language, &content, &units, &cond, &rank, &snippet); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		rec, err := buildRecord(id, filePath, language, content, units, cond)
		if err != nil {
			return nil, err
		}
		results = append(results, FTSResult{Record: *rec, Rank: rank, Snippet: snippet})
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*assembler.Record, error) {
	var id, filePath, language, content, units, cond string
	if err := row.Scan(&id, &filePath, &language, &content, &units, &cond); err != nil {
		return nil, err
	}
	return buildRecord(id, filePath, language, content, units, cond)
}

func buildRecord(id, filePath, language, content, units, cond string) (*assembler.Record, error) {
	rec := &assembler.Record{
		ID:      id,
		Content: content,
		Metadata: assembler.Metadata{
			Language: language,
			Filepath: filePath,
		},
	}
	if err := json.Unmarshal([]byte(units), &rec.Metadata.ChunkUnits); err != nil {
		return nil, fmt.Errorf("failed to unmarshal units for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(cond), &rec.Metadata.CondContext); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conditional context for %s: %w", id, err)
	}
	return rec, nil
}
