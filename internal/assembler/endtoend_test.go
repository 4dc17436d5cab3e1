package assembler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seg-flt/hdrscan/internal/extraction"
)

// Test Plan:
// - a doc attaches to the adjacent function, a plain comment two
//   lines up attaches to the other, nothing crosses over
// - semantic filtering drops structural headers but keeps the
//   guard chain and conditional context of a nested typedef
// - Emitted records marshal to the documented JSONL shape

func TestCommentAttachment_DocVsPlain(t *testing.T) {
	t.Parallel()

	source := `/** @brief X */
void first(void);

// helper note




void second(void);
`
	e := extraction.NewPatternExtractor(nil, extraction.DefaultOptions())
	spans, err := e.Extract(context.Background(), source, "pair.h")
	require.NoError(t, err)

	f := NewBuilder(nil).Build(spans)

	var first, second *extraction.Span
	for i := range f.Spans {
		switch f.Spans[i].Name {
		case "first":
			first = &f.Spans[i]
		case "second":
			second = &f.Spans[i]
		}
	}
	require.NotNil(t, first)
	require.NotNil(t, second)

	require.NotNil(t, first.Doc)
	assert.Equal(t, "X", first.Doc.Brief)

	assert.Nil(t, second.Doc)
	require.Len(t, second.Comments, 1)
	assert.Equal(t, "helper note", second.Comments[0].Text)
}

func TestSemanticOnly_EndToEnd(t *testing.T) {
	t.Parallel()

	source := `/** Board support definitions. */

#ifndef BOARD_H
#define BOARD_H

// ===== Types =====

typedef unsigned short board_id_t;

#endif
`
	e := extraction.NewPatternExtractor(nil, extraction.DefaultOptions())
	spans, err := e.Extract(context.Background(), source, "board.h")
	require.NoError(t, err)

	f := NewBuilder(nil).Build(spans)
	cfg := DefaultConfig()
	cfg.SemanticOnly = true
	chunks := New(cfg).Assemble(f, "board.h")

	for _, c := range chunks {
		for _, u := range c.Units {
			assert.NotEqual(t, "file_header", u.Type)
			assert.NotEqual(t, "section_header", u.Type)
		}
	}

	td := chunkWithUnit(chunks, "board_id_t")
	require.NotNil(t, td)
	assert.Equal(t, []string{"BOARD_H"}, td.CondContext)

	var unit *ChunkUnit
	for i := range td.Units {
		if td.Units[i].Name == "board_id_t" {
			unit = &td.Units[i]
		}
	}
	require.NotNil(t, unit)
	assert.Equal(t, "include_guard:BOARD_H/type_definition:board_id_t", unit.Context)
}

func TestRecord_JSONShape(t *testing.T) {
	t.Parallel()

	c := Chunk{
		ID:      ChunkID("wire.h", 1, 3),
		Content: "typedef int wire_t;",
		Units: []ChunkUnit{{
			Type: "type_definition", Name: "wire_t",
			Start: 1, End: 3, Depth: 0,
			Context: "type_definition:wire_t",
		}},
	}

	raw, err := json.Marshal(c.Record("c", "wire.h"))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, c.ID, got["id"])
	assert.Equal(t, c.Content, got["content"])

	meta, ok := got["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "c", meta["language"])
	assert.Equal(t, "wire.h", meta["filepath"])
	assert.Equal(t, []any{}, meta["conditional_context"])

	units, ok := meta["chunk_units"].([]any)
	require.True(t, ok)
	require.Len(t, units, 1)
	u := units[0].(map[string]any)
	assert.Equal(t, "wire_t", u["name"])
	assert.Equal(t, float64(1), u["start"])
}
