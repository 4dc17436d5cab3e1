package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seg-flt/hdrscan/internal/assembler"
)

// Test Plan:
// - chunk command discovers headers under --root and writes JSONL records
// - index + search round-trip through the SQLite FTS5 store
// These tests mutate package-level flag state, so they do not run in
// parallel.

const cliHeader = `/** @brief Opens the UART port. */
int uart_open(int port);

void uart_close(int port);
`

func writeHeader(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(cliHeader), 0o644))
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestChunkCommand(t *testing.T) {
	dir := t.TempDir()
	writeHeader(t, dir, "uart.h")
	outPath := filepath.Join(dir, "chunks.jsonl")

	execute(t, "chunk", "--root", dir, "--output", outPath, "--quiet")

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()

	var records []assembler.Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec assembler.Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, sc.Err())

	require.NotEmpty(t, records)
	assert.Equal(t, "uart.h", records[0].Metadata.Filepath)
	assert.Equal(t, "c", records[0].Metadata.Language)
	assert.Contains(t, records[0].Content, "uart_open")
}

func TestIndexAndSearchCommands(t *testing.T) {
	dir := t.TempDir()
	writeHeader(t, dir, "uart.h")

	execute(t, "index", "--root", dir, "--quiet", "--no-bleve")
	require.FileExists(t, filepath.Join(dir, ".hdrscan", "chunks.db"))

	out := execute(t, "search", "--root", dir, "--quiet", "uart_open")
	assert.Contains(t, out, "uart.h")
	assert.Contains(t, out, "uart_open")

	none := execute(t, "search", "--root", dir, "--quiet", "zmissingz")
	assert.Contains(t, none, "No results.")
}
