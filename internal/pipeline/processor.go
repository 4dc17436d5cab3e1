package pipeline

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/seg-flt/hdrscan/internal/assembler"
	"github.com/seg-flt/hdrscan/internal/extraction"
)

// Language is the source language tag stamped on every emitted record.
const Language = "c"

// Processor turns one header file into its chunk records. It holds no
// per-file state: the extractor, builder and assembler are all reusable,
// so a single Processor may serve concurrent workers.
type Processor struct {
	extractor extraction.Extractor
	builder   *assembler.Builder
	asm       *assembler.Assembler
}

// NewProcessor wires the extraction-to-assembly pipeline for one
// configuration.
func NewProcessor(ex extraction.Extractor, builder *assembler.Builder, asm *assembler.Assembler) *Processor {
	return &Processor{extractor: ex, builder: builder, asm: asm}
}

// ProcessFile reads, extracts and assembles one file. absPath is read from
// disk; relPath keys the chunk IDs and metadata so results are stable
// across machines. A file that yields zero spans produces zero records,
// not an error.
func (p *Processor) ProcessFile(ctx context.Context, absPath, relPath string) ([]assembler.Record, error) {
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", absPath, err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("decoding %s: not valid UTF-8", absPath)
	}

	return p.ProcessSource(ctx, string(raw), relPath)
}

// ProcessSource runs extraction and assembly over in-memory source.
func (p *Processor) ProcessSource(ctx context.Context, source, relPath string) ([]assembler.Record, error) {
	spans, err := p.extractor.Extract(ctx, source, relPath)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", relPath, err)
	}
	if len(spans) == 0 {
		return nil, nil
	}

	forest := p.builder.Build(spans)
	chunks := p.asm.Assemble(forest, relPath)

	records := make([]assembler.Record, len(chunks))
	for i := range chunks {
		records[i] = chunks[i].Record(Language, relPath)
	}
	return records, nil
}
