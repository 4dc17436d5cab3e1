package storage

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seg-flt/hdrscan/internal/assembler"
)

// Test Plan:
// - ChunkStore round-trips records through SQLite, including unit metadata
// - ReplaceAll rebuilds, ReplaceFiles only touches the named files
// - FTS5 search ranks and snippets keyword matches
// - BleveIndex indexes and ranks chunk content
// - VectorStore uploads and queries with a deterministic local embedder

func rec(id, file, content string, cond ...string) assembler.Record {
	if cond == nil {
		cond = []string{}
	}
	return assembler.Record{
		ID:      id,
		Content: content,
		Metadata: assembler.Metadata{
			Language:    "c",
			Filepath:    file,
			ChunkUnits:  []assembler.ChunkUnit{{Type: "function_definition", Name: id, Start: 1, End: 3}},
			CondContext: cond,
		},
	}
}

func newStore(t *testing.T) *ChunkStore {
	t.Helper()
	s, err := NewChunkStore(filepath.Join(t.TempDir(), "chunks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestChunkStore_RoundTrip(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	in := rec("aaa111", "gpio.h", "void gpio_init(void);", "GPIO_H")
	require.NoError(t, s.ReplaceAll([]assembler.Record{in}))

	got, err := s.Get("aaa111")
	require.NoError(t, err)
	assert.Equal(t, in, *got)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestChunkStore_ReplaceAll(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.NoError(t, s.ReplaceAll([]assembler.Record{
		rec("a1", "a.h", "void a(void);"),
		rec("b1", "b.h", "void b(void);"),
	}))
	require.NoError(t, s.ReplaceAll([]assembler.Record{
		rec("c1", "c.h", "void c(void);"),
	}))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Get("a1")
	assert.Error(t, err)
}

func TestChunkStore_ReplaceFiles(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.NoError(t, s.ReplaceAll([]assembler.Record{
		rec("a1", "a.h", "void a(void);"),
		rec("b1", "b.h", "void b(void);"),
	}))

	// New chunks for a.h replace only a.h's previous ones.
	require.NoError(t, s.ReplaceFiles([]assembler.Record{
		rec("a2", "a.h", "void a2(void);"),
	}))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.Get("a1")
	assert.Error(t, err)
	_, err = s.Get("b1")
	assert.NoError(t, err)
}

func TestChunkStore_DuplicateIDs(t *testing.T) {
	t.Parallel()

	// With overlap enabled, consecutive chunks share the ID minted from
	// their first unit. The batch must still insert; the later, longer
	// chunk wins.
	s := newStore(t)
	short := rec("dup1", "ring.h", "void ring_reset(ring_t *r);")
	long := rec("dup1", "ring.h", "void ring_reset(ring_t *r);\n\nint ring_push(ring_t *r, int v);")
	require.NoError(t, s.ReplaceAll([]assembler.Record{short, long}))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Get("dup1")
	require.NoError(t, err)
	assert.Equal(t, long.Content, got.Content)

	hits, err := s.Search("ring_push", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, long.Content, hits[0].Record.Content)
}

func TestChunkStore_Search(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.NoError(t, s.ReplaceAll([]assembler.Record{
		rec("u1", "uart.h", "Brief: Opens the UART port.\n\nint uart_open(int port);"),
		rec("g1", "gpio.h", "void gpio_toggle(int pin);"),
	}))

	hits, err := s.Search("uart", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "u1", hits[0].Record.ID)
	assert.Contains(t, hits[0].Snippet, "<mark>")

	none, err := s.Search("missing", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBleveIndex(t *testing.T) {
	t.Parallel()

	idx, err := OpenBleveIndex(filepath.Join(t.TempDir(), "chunks.bleve"))
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Index([]assembler.Record{
		rec("u1", "uart.h", "int uart_open(int port);"),
		rec("g1", "gpio.h", "void gpio_toggle(int pin);"),
	}))

	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	hits, err := idx.Search("uart_open", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "u1", hits[0].ID)
	assert.Equal(t, "uart.h", hits[0].Filepath)
}

// fakeEmbed maps text onto a small deterministic unit vector so vector
// tests run without a model or network.
func fakeEmbed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 8)
	for i, r := range text {
		v[i%8] += float32(r%31) / 31
	}
	var norm float64
	for _, x := range v {
		norm += float64(x * x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v, nil
}

func TestVectorStore(t *testing.T) {
	t.Parallel()

	vs, err := NewVectorStore(fakeEmbed)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, vs.Upload(ctx, []assembler.Record{
		rec("u1", "uart.h", "int uart_open(int port);"),
		rec("g1", "gpio.h", "void gpio_toggle(int pin);", "GPIO_H"),
	}))
	assert.Equal(t, 2, vs.Count())

	results, err := vs.Query(ctx, "int uart_open(int port);", 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "u1", results[0].ID)

	filtered, err := vs.Query(ctx, "toggle", 1, map[string]string{"filepath": "gpio.h"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "g1", filtered[0].ID)
}

func TestVectorStore_Empty(t *testing.T) {
	t.Parallel()

	vs, err := NewVectorStore(fakeEmbed)
	require.NoError(t, err)

	results, err := vs.Query(context.Background(), "anything", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
