package extraction

import "context"

// Extractor produces the flat span set for one source file. Implementations
// are interchangeable: the assembler only sees the spans.
//
// Order of the returned spans is irrelevant; ranges may overlap or be
// malformed (regex extraction is best-effort) and downstream consumers must
// degrade gracefully rather than fail.
type Extractor interface {
	Extract(ctx context.Context, source string, filePath string) ([]Span, error)
}
