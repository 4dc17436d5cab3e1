package extraction

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Patterns is the immutable matcher table for the pattern extractor. Build
// one with DefaultPatterns and share it freely; nothing mutates it after
// construction.
type Patterns struct {
	FunctionDef  *regexp.Regexp
	FunctionDecl *regexp.Regexp
	Aggregate    *regexp.Regexp // struct/enum/union with a body
	AggregateRef *regexp.Regexp // forward declaration form
	TypedefAgg   *regexp.Regexp // typedef struct/enum/union { ... } name;
	TypedefPlain *regexp.Regexp
	Macro        *regexp.Regexp
	Conditional  *regexp.Regexp
	Endif        *regexp.Regexp
	FileHeader   *regexp.Regexp
	SectionHdr   *regexp.Regexp
}

// DefaultPatterns returns the matcher table tuned for embedded C headers.
func DefaultPatterns() *Patterns {
	return &Patterns{
		FunctionDef:  regexp.MustCompile(`(?m)^[ \t]*(?:static[ \t]+|inline[ \t]+)*(?:\w+[\s\*]+)+(\w+)\s*\([^;{]*\)\s*\{`),
		FunctionDecl: regexp.MustCompile(`(?m)^[ \t]*(?:extern[ \t]+)?(?:\w+[\s\*]+)+(\w+)\s*\([^;{]*\)\s*;`),
		Aggregate:    regexp.MustCompile(`(struct|enum|union)\s+(\w+)\s*\{`),
		AggregateRef: regexp.MustCompile(`(?m)^[ \t]*(struct|enum|union)\s+(\w+)\s*;`),
		TypedefAgg:   regexp.MustCompile(`typedef\s+(struct|enum|union)(?:\s+\w+)?\s*\{`),
		TypedefPlain: regexp.MustCompile(`(?m)^[ \t]*typedef[ \t]+[\w\*][\w\*\s]*?[\s\*](\w+)[ \t]*;`),
		Macro:        regexp.MustCompile(`(?m)^[ \t]*#[ \t]*define[ \t]+(\w+)(\([^)\n]*\))?([ \t]+[^\n]*)?`),
		Conditional:  regexp.MustCompile(`(?m)^[ \t]*#[ \t]*(ifdef|ifndef|if)[ \t]+([^\n]+)`),
		Endif:        regexp.MustCompile(`(?m)^[ \t]*#[ \t]*endif[^\n]*`),
		FileHeader:   regexp.MustCompile(`(?s)\A\s*(/\*\*!.*?\*/|/\*\*.*?\*/|/\*!.*?\*/|(?://![^\n]*\n?)+)`),
		SectionHdr:   regexp.MustCompile(`(?m)^[ \t]*//[^\n]*===+[^\n]*(?:\n[ \t]*//[^\n]*)*`),
	}
}

// Options controls what the extractors attach to and emit alongside spans.
type Options struct {
	IncludeComments       bool
	IncludeFileHeaders    bool
	IncludeSectionHeaders bool
	MaxCommentGap         int
}

// DefaultOptions mirrors the configuration surface defaults.
func DefaultOptions() Options {
	return Options{
		IncludeComments:       true,
		IncludeFileHeaders:    true,
		IncludeSectionHeaders: true,
		MaxCommentGap:         DefaultMaxCommentGap,
	}
}

// PatternExtractor extracts spans with regular expressions and balanced
// brace scanning. It needs no grammar and tolerates malformed input: wrong
// or overlapping ranges are the hierarchy builder's problem, not an error.
type PatternExtractor struct {
	patterns *Patterns
	opts     Options
}

// NewPatternExtractor creates a pattern extractor. A nil patterns table
// means DefaultPatterns.
func NewPatternExtractor(patterns *Patterns, opts Options) *PatternExtractor {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	if opts.MaxCommentGap <= 0 {
		opts.MaxCommentGap = DefaultMaxCommentGap
	}
	return &PatternExtractor{patterns: patterns, opts: opts}
}

// Extract scans the source and returns the flat span set, sorted by start
// line. The context is accepted for interface parity; extraction itself is
// synchronous and cheap.
func (e *PatternExtractor) Extract(ctx context.Context, source, filePath string) ([]Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	offs := lineOffsets(source)
	var spans []Span

	spans = append(spans, e.extractFunctions(source, offs)...)
	spans = append(spans, e.extractAggregates(source, offs)...)
	spans = append(spans, e.extractTypedefs(source, offs)...)
	spans = append(spans, e.extractMacros(source, offs)...)
	spans = append(spans, e.extractDirectives(source, offs)...)

	if e.opts.IncludeFileHeaders {
		if s := e.extractFileHeader(source, offs, filePath); s != nil {
			spans = append(spans, *s)
		}
	}
	if e.opts.IncludeSectionHeaders {
		spans = append(spans, e.extractSectionHeaders(source, offs)...)
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].StartLine != spans[j].StartLine {
			return spans[i].StartLine < spans[j].StartLine
		}
		return spans[i].EndLine > spans[j].EndLine
	})
	return spans, nil
}

// balancedEnd returns the byte offset just past the brace block opening at
// openIdx, or -1 when the block never closes.
func balancedEnd(source string, openIdx int) int {
	if openIdx >= len(source) || source[openIdx] != '{' {
		return -1
	}
	depth := 0
	for i := openIdx; i < len(source); i++ {
		switch source[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func (e *PatternExtractor) newSpan(t SpanType, name, source string, start, end int, offs []int) Span {
	startLine := byteToLine(start, offs)
	endLine := byteToLine(end-1, offs)
	doc, comments := AssociateComments(source, startLine, e.opts.IncludeComments, e.opts.MaxCommentGap)
	return Span{
		Type:      t,
		Name:      name,
		StartLine: startLine,
		EndLine:   endLine,
		Code:      source[start:end],
		Doc:       doc,
		Comments:  comments,
	}
}

func (e *PatternExtractor) extractFunctions(source string, offs []int) []Span {
	var spans []Span

	for _, m := range e.patterns.FunctionDef.FindAllStringSubmatchIndex(source, -1) {
		openIdx := strings.IndexByte(source[m[0]:m[1]], '{') + m[0]
		end := balancedEnd(source, openIdx)
		if end < 0 {
			continue
		}
		name := source[m[2]:m[3]]
		spans = append(spans, e.newSpan(SpanFunction, name, source, m[0], end, offs))
	}

	for _, m := range e.patterns.FunctionDecl.FindAllStringSubmatchIndex(source, -1) {
		name := source[m[2]:m[3]]
		spans = append(spans, e.newSpan(SpanDeclaration, name, source, m[0], m[1], offs))
	}

	return spans
}

var aggregateTypes = map[string]SpanType{
	"struct": SpanStruct,
	"enum":   SpanEnum,
	"union":  SpanUnion,
}

func (e *PatternExtractor) extractAggregates(source string, offs []int) []Span {
	var spans []Span

	for _, m := range e.patterns.Aggregate.FindAllStringSubmatchIndex(source, -1) {
		// Aggregates embedded in a typedef are extracted by extractTypedefs.
		if isTypedefHead(source, m[0]) {
			continue
		}
		openIdx := strings.IndexByte(source[m[0]:m[1]], '{') + m[0]
		end := balancedEnd(source, openIdx)
		if end < 0 {
			continue
		}
		// Include a trailing semicolon when present.
		end = absorbSemicolon(source, end)
		kind := source[m[2]:m[3]]
		name := source[m[4]:m[5]]
		spans = append(spans, e.newSpan(aggregateTypes[kind], name, source, m[0], end, offs))
	}

	for _, m := range e.patterns.AggregateRef.FindAllStringSubmatchIndex(source, -1) {
		kind := source[m[2]:m[3]]
		name := source[m[4]:m[5]]
		spans = append(spans, e.newSpan(aggregateTypes[kind], name, source, m[0], m[1], offs))
	}

	return spans
}

// isTypedefHead reports whether the aggregate keyword at idx is preceded by
// a typedef keyword on the same statement.
func isTypedefHead(source string, idx int) bool {
	start := idx - 64
	if start < 0 {
		start = 0
	}
	prefix := source[start:idx]
	if cut := strings.LastIndexAny(prefix, ";}{"); cut >= 0 {
		prefix = prefix[cut+1:]
	}
	return strings.Contains(prefix, "typedef")
}

func absorbSemicolon(source string, end int) int {
	i := end
	for i < len(source) && (source[i] == ' ' || source[i] == '\t') {
		i++
	}
	if i < len(source) && source[i] == ';' {
		return i + 1
	}
	return end
}

var typedefNameRe = regexp.MustCompile(`^\s*(\w+)\s*;`)

func (e *PatternExtractor) extractTypedefs(source string, offs []int) []Span {
	var spans []Span

	for _, m := range e.patterns.TypedefAgg.FindAllStringSubmatchIndex(source, -1) {
		openIdx := strings.IndexByte(source[m[0]:m[1]], '{') + m[0]
		bodyEnd := balancedEnd(source, openIdx)
		if bodyEnd < 0 {
			continue
		}
		nm := typedefNameRe.FindStringSubmatchIndex(source[bodyEnd:])
		if nm == nil {
			continue
		}
		name := source[bodyEnd+nm[2] : bodyEnd+nm[3]]
		end := bodyEnd + nm[1]
		spans = append(spans, e.newSpan(SpanTypedef, name, source, m[0], end, offs))
	}

	for _, m := range e.patterns.TypedefPlain.FindAllStringSubmatchIndex(source, -1) {
		// Aggregate typedefs match the plain form too once braces close on
		// one line; skip anything containing a brace.
		if strings.ContainsAny(source[m[0]:m[1]], "{}") {
			continue
		}
		name := source[m[2]:m[3]]
		spans = append(spans, e.newSpan(SpanTypedef, name, source, m[0], m[1], offs))
	}

	return spans
}

func (e *PatternExtractor) extractMacros(source string, offs []int) []Span {
	var spans []Span

	for _, m := range e.patterns.Macro.FindAllStringSubmatchIndex(source, -1) {
		// Extend the match across backslash continuations, line by line.
		end := m[1]
		lineStart := m[0]
		for {
			nl := strings.IndexByte(source[lineStart:], '\n')
			if nl < 0 {
				end = len(source)
				break
			}
			lineEnd := lineStart + nl
			if !strings.HasSuffix(strings.TrimRight(source[lineStart:lineEnd], " \t\r"), `\`) {
				if lineEnd > end {
					end = lineEnd
				}
				break
			}
			lineStart = lineEnd + 1
		}

		name := source[m[2]:m[3]]
		t := SpanMacro
		if m[4] >= 0 { // parenthesized parameter list directly after the name
			t = SpanMacroFunc
		}
		spans = append(spans, e.newSpan(t, name, source, m[0], end, offs))
	}

	return spans
}

var conditionalTypes = map[string]SpanType{
	"if":     SpanCondIf,
	"ifdef":  SpanCondIfdef,
	"ifndef": SpanCondIfndef,
}

// stripDirectiveComment trims a trailing comment from a directive condition.
func stripDirectiveComment(cond string) string {
	if i := strings.Index(cond, "/*"); i >= 0 {
		cond = cond[:i]
	}
	if i := strings.Index(cond, "//"); i >= 0 {
		cond = cond[:i]
	}
	return strings.TrimSpace(cond)
}

func (e *PatternExtractor) extractDirectives(source string, offs []int) []Span {
	var spans []Span

	for _, m := range e.patterns.Conditional.FindAllStringSubmatchIndex(source, -1) {
		kind := source[m[2]:m[3]]
		cond := stripDirectiveComment(source[m[4]:m[5]])
		s := e.newSpan(conditionalTypes[kind], cond, source, m[0], m[1], offs)
		// Directives never own the comment above them; that belongs to the
		// first span inside the block.
		s.Doc, s.Comments = nil, nil
		spans = append(spans, s)
	}

	for _, loc := range e.patterns.Endif.FindAllStringIndex(source, -1) {
		s := e.newSpan(SpanCondEndif, "", source, loc[0], loc[1], offs)
		s.Doc, s.Comments = nil, nil
		spans = append(spans, s)
	}

	return spans
}

func (e *PatternExtractor) extractFileHeader(source string, offs []int, filePath string) *Span {
	loc := e.patterns.FileHeader.FindStringIndex(source)
	if loc == nil {
		return nil
	}
	start := loc[0] + indexNonSpace(source[loc[0]:loc[1]])
	s := Span{
		Type:      SpanFileHeader,
		Name:      filepath.Base(filePath),
		StartLine: byteToLine(start, offs),
		EndLine:   byteToLine(loc[1]-1, offs),
		Code:      strings.TrimSpace(source[loc[0]:loc[1]]),
	}
	return &s
}

func indexNonSpace(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
		default:
			return i
		}
	}
	return 0
}

var sectionNameRe = regexp.MustCompile(`//[^\w\n]*(\w[\w ]*?)[^\w\n]*===`)

func (e *PatternExtractor) extractSectionHeaders(source string, offs []int) []Span {
	var spans []Span

	for _, loc := range e.patterns.SectionHdr.FindAllStringIndex(source, -1) {
		text := source[loc[0]:loc[1]]
		name := ""
		if m := sectionNameRe.FindStringSubmatch(text); m != nil {
			name = strings.TrimSpace(m[1])
		}
		spans = append(spans, Span{
			Type:      SpanSectionHdr,
			Name:      name,
			StartLine: byteToLine(loc[0], offs),
			EndLine:   byteToLine(loc[1]-1, offs),
			Code:      text,
		})
	}

	return spans
}
