package extraction

// SpanType tags an extracted code unit.
type SpanType string

const (
	SpanFunction    SpanType = "function_definition"
	SpanDeclaration SpanType = "declaration"
	SpanStruct      SpanType = "struct_specifier"
	SpanEnum        SpanType = "enum_specifier"
	SpanUnion       SpanType = "union_specifier"
	SpanTypedef     SpanType = "type_definition"
	SpanMacro       SpanType = "preproc_def"
	SpanMacroFunc   SpanType = "preproc_function_def"
	SpanCondIf      SpanType = "preproc_if"
	SpanCondIfdef   SpanType = "preproc_ifdef"
	SpanCondIfndef  SpanType = "preproc_ifndef"
	SpanCondEndif   SpanType = "preproc_endif"
	SpanFileHeader  SpanType = "file_header"
	SpanSectionHdr  SpanType = "section_header"
	SpanGuard       SpanType = "include_guard"
)

// PartSuffix marks a fragment of a span that was split to fit the size budget.
const PartSuffix = "_part"

// Part returns the fragment type for a split span.
func (t SpanType) Part() SpanType {
	return t + PartSuffix
}

// IsConditional reports whether the type opens a conditional compilation block.
func (t SpanType) IsConditional() bool {
	return t == SpanCondIf || t == SpanCondIfdef || t == SpanCondIfndef
}

// IsMacro reports whether the type is a preprocessor define.
// Macro spans are indivisible: the assembler never splits them.
func (t SpanType) IsMacro() bool {
	return t == SpanMacro || t == SpanMacroFunc
}

// SemanticTypes is the default set of span types kept by the semantic-only
// filter. Structural spans (file headers, section headers, directives) are
// excluded but survive as ancestors of kept spans.
var SemanticTypes = map[SpanType]bool{
	SpanFunction:    true,
	SpanDeclaration: true,
	SpanStruct:      true,
	SpanEnum:        true,
	SpanUnion:       true,
	SpanTypedef:     true,
	SpanMacro:       true,
	SpanMacroFunc:   true,
}

// DocComment is a structured documentation block (Doxygen style).
type DocComment struct {
	Raw      string   `json:"raw"`
	Brief    string   `json:"brief,omitempty"`
	Text     string   `json:"text,omitempty"`
	Params   []string `json:"param,omitempty"`
	Retvals  []string `json:"retval,omitempty"`
	Returns  []string `json:"return,omitempty"`
	Notes    []string `json:"note,omitempty"`
	Warnings []string `json:"warning,omitempty"`
	LineGap  int      `json:"line_gap"`
}

// Comment is a plain (non-documentation) comment block.
type Comment struct {
	Raw     string `json:"raw"`
	Text    string `json:"text,omitempty"`
	LineGap int    `json:"line_gap"`
}

// Span is a single extracted code unit. StartLine and EndLine are 1-based
// and inclusive; the line range is authoritative for containment.
//
// Spans are created by an extractor and enriched by the hierarchy builder.
// After hierarchy construction only Depth and CondLabel are back-filled;
// everything else is immutable.
type Span struct {
	Type      SpanType
	Name      string
	StartLine int
	EndLine   int
	Code      string
	Doc       *DocComment
	Comments  []Comment

	// CondLabel names the innermost enclosing conditional-compilation
	// condition or include-guard macro. Back-filled by the hierarchy
	// builder; empty for spans outside any directive block.
	CondLabel string

	// Depth is 0 for forest roots. Back-filled by the hierarchy builder.
	Depth int
}

// Contains reports whether s strictly contains other per the containment
// invariant: parent.start < child.start and parent.end >= child.end.
func (s *Span) Contains(other *Span) bool {
	return s.StartLine < other.StartLine && s.EndLine >= other.EndLine
}

// Key identifies a span for deduplication purposes.
type Key struct {
	Type  SpanType
	Name  string
	Start int
	End   int
}

// Key returns the dedup identity of the span.
func (s *Span) Key() Key {
	return Key{Type: s.Type, Name: s.Name, Start: s.StartLine, End: s.EndLine}
}
