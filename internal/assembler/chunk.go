package assembler

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// ChunkUnit is the metadata record for one span contributing to a chunk.
type ChunkUnit struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Depth   int    `json:"depth"`
	Context string `json:"context"`
}

// Chunk is one emitted unit of formatted text plus its member metadata.
// Chunks are immutable after emission; replaying the same input and
// configuration reproduces identical IDs, content and metadata.
type Chunk struct {
	ID          string
	Content     string
	Units       []ChunkUnit
	CondContext []string
}

// ChunkID fingerprints a chunk from its file path and the line range of
// its first span. Stable across runs on unchanged input.
func ChunkID(filePath string, start, end int) string {
	sum := sha1.Sum(fmt.Appendf(nil, "%s|%d|%d", filePath, start, end))
	return hex.EncodeToString(sum[:])[:16]
}

// Metadata is the metadata object of an emitted chunk record.
type Metadata struct {
	Language    string      `json:"language"`
	Filepath    string      `json:"filepath"`
	ChunkUnits  []ChunkUnit `json:"chunk_units"`
	CondContext []string    `json:"conditional_context"`
}

// Record is the JSON-serializable form of a chunk, one per output line.
type Record struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// Record builds the emission record for the chunk.
func (c *Chunk) Record(language, filePath string) Record {
	cond := c.CondContext
	if cond == nil {
		cond = []string{}
	}
	return Record{
		ID:      c.ID,
		Content: c.Content,
		Metadata: Metadata{
			Language:    language,
			Filepath:    filePath,
			ChunkUnits:  c.Units,
			CondContext: cond,
		},
	}
}
