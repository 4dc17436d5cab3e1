package storage

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/seg-flt/hdrscan/internal/assembler"
)

const vectorCollection = "hdrscan-chunks"

// VectorStore uploads chunk records into a chromem-go collection for
// similarity search. It is the thin "embedding service" collaborator: the
// assembler never sees it.
type VectorStore struct {
	db  *chromem.DB
	col *chromem.Collection
}

// NewVectorStore creates an in-memory vector store. The embedding function
// may be nil, in which case chromem's default local embedder applies.
func NewVectorStore(embed chromem.EmbeddingFunc) (*VectorStore, error) {
	db := chromem.NewDB()
	col, err := db.CreateCollection(vectorCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("creating vector collection: %w", err)
	}
	return &VectorStore{db: db, col: col}, nil
}

// NewPersistentVectorStore keeps the collection on disk under path.
func NewPersistentVectorStore(path string, embed chromem.EmbeddingFunc) (*VectorStore, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening vector database: %w", err)
	}
	col, err := db.GetOrCreateCollection(vectorCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("opening vector collection: %w", err)
	}
	return &VectorStore{db: db, col: col}, nil
}

// Upload adds the records as documents, embedding concurrently.
func (v *VectorStore) Upload(ctx context.Context, records []assembler.Record) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(records))
	for i, rec := range records {
		docs[i] = chromem.Document{
			ID:      rec.ID,
			Content: rec.Content,
			Metadata: map[string]string{
				"filepath":    rec.Metadata.Filepath,
				"language":    rec.Metadata.Language,
				"conditional": strings.Join(rec.Metadata.CondContext, ","),
			},
		}
	}
	if err := v.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	return nil
}

// Query returns the n most similar documents, optionally restricted by
// metadata equality (e.g. {"filepath": "drivers/uart.h"}).
func (v *VectorStore) Query(ctx context.Context, text string, n int, where map[string]string) ([]chromem.Result, error) {
	if n <= 0 {
		n = 10
	}
	if count := v.col.Count(); n > count {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	results, err := v.col.Query(ctx, text, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return results, nil
}

// Count returns the number of stored documents.
func (v *VectorStore) Count() int {
	return v.col.Count()
}
