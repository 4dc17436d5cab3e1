package storage

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/seg-flt/hdrscan/internal/assembler"
)

// bleveChunk is the document shape indexed for ranked search.
type bleveChunk struct {
	Content     string `json:"content"`
	Filepath    string `json:"filepath"`
	Language    string `json:"language"`
	Conditional string `json:"conditional"`
}

// BleveIndex ranks chunk content with bleve's scoring and highlighting,
// complementing the exact-match FTS5 search in ChunkStore.
type BleveIndex struct {
	idx bleve.Index
}

// OpenBleveIndex opens the index at path, creating it on first use.
func OpenBleveIndex(path string) (*BleveIndex, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("opening bleve index: %w", err)
	}
	return &BleveIndex{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	chunk := bleve.NewDocumentMapping()

	content := bleve.NewTextFieldMapping()
	chunk.AddFieldMappingsAt("content", content)

	filepathField := bleve.NewKeywordFieldMapping()
	chunk.AddFieldMappingsAt("filepath", filepathField)

	language := bleve.NewKeywordFieldMapping()
	language.Index = false
	chunk.AddFieldMappingsAt("language", language)

	conditional := bleve.NewTextFieldMapping()
	chunk.AddFieldMappingsAt("conditional", conditional)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = chunk
	return m
}

// Index upserts the records in one batch.
func (b *BleveIndex) Index(records []assembler.Record) error {
	batch := b.idx.NewBatch()
	for _, rec := range records {
		doc := bleveChunk{
			Content:     rec.Content,
			Filepath:    rec.Metadata.Filepath,
			Language:    rec.Metadata.Language,
			Conditional: strings.Join(rec.Metadata.CondContext, " "),
		}
		if err := batch.Index(rec.ID, doc); err != nil {
			return fmt.Errorf("batching chunk %s: %w", rec.ID, err)
		}
	}
	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("indexing batch: %w", err)
	}
	return nil
}

// Hit is one ranked search result.
type Hit struct {
	ID        string
	Score     float64
	Filepath  string
	Fragments []string
}

// Search runs a query-string query and returns scored hits with content
// fragments.
func (b *BleveIndex) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(query), limit, 0, false)
	req.Fields = []string{"filepath"}
	req.Highlight = bleve.NewHighlight()

	res, err := b.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if fp, ok := h.Fields["filepath"].(string); ok {
			hit.Filepath = fp
		}
		for _, frags := range h.Fragments {
			hit.Fragments = append(hit.Fragments, frags...)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// DocCount returns the number of indexed chunks.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.idx.DocCount()
}

func (b *BleveIndex) Close() error {
	return b.idx.Close()
}
