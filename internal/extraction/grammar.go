package extraction

import (
	"context"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
)

// grammarTargets maps tree-sitter C node kinds to span types. Conditional
// blocks captured by the grammar cover their whole body, opener through
// #endif; the hierarchy builder detects that from the multi-line range.
var grammarTargets = map[string]SpanType{
	"function_definition":  SpanFunction,
	"declaration":          SpanDeclaration,
	"struct_specifier":     SpanStruct,
	"enum_specifier":       SpanEnum,
	"union_specifier":      SpanUnion,
	"type_definition":      SpanTypedef,
	"preproc_def":          SpanMacro,
	"preproc_function_def": SpanMacroFunc,
	"preproc_if":           SpanCondIf,
	"preproc_ifdef":        SpanCondIfdef,
}

// GrammarExtractor extracts spans with the tree-sitter C grammar. It yields
// the same span shape as the pattern extractor so the assembler cannot tell
// them apart.
type GrammarExtractor struct {
	language *sitter.Language
	opts     Options
}

// NewGrammarExtractor creates a grammar-based extractor.
func NewGrammarExtractor(opts Options) *GrammarExtractor {
	if opts.MaxCommentGap <= 0 {
		opts.MaxCommentGap = DefaultMaxCommentGap
	}
	return &GrammarExtractor{
		language: sitter.NewLanguage(c.Language()),
		opts:     opts,
	}
}

// Extract parses the source and walks the tree for target node kinds.
func (e *GrammarExtractor) Extract(ctx context.Context, source, filePath string) ([]Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.language)

	src := []byte(source)
	tree := parser.Parse(src, nil)
	if tree == nil {
		// Unparseable input degrades to zero spans, not an error.
		return nil, nil
	}
	defer tree.Close()

	var spans []Span
	e.walk(tree.RootNode(), src, source, &spans)

	// Structural header spans come from the same patterns in both
	// extractors; the grammar has no node kind for them.
	pat := DefaultPatterns()
	offs := lineOffsets(source)
	if e.opts.IncludeFileHeaders {
		pe := PatternExtractor{patterns: pat, opts: e.opts}
		if s := pe.extractFileHeader(source, offs, filePath); s != nil {
			spans = append(spans, *s)
		}
	}
	if e.opts.IncludeSectionHeaders {
		pe := PatternExtractor{patterns: pat, opts: e.opts}
		spans = append(spans, pe.extractSectionHeaders(source, offs)...)
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].StartLine != spans[j].StartLine {
			return spans[i].StartLine < spans[j].StartLine
		}
		return spans[i].EndLine > spans[j].EndLine
	})
	return spans, nil
}

func (e *GrammarExtractor) walk(node *sitter.Node, src []byte, source string, out *[]Span) {
	if node == nil {
		return
	}

	if t, ok := grammarTargets[node.Kind()]; ok {
		if s := e.spanFromNode(node, t, src, source); s != nil {
			*out = append(*out, *s)
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		e.walk(node.Child(uint(i)), src, source, out)
	}
}

func (e *GrammarExtractor) spanFromNode(node *sitter.Node, t SpanType, src []byte, source string) *Span {
	code := string(src[node.StartByte():node.EndByte()])
	if len(strings.TrimSpace(code)) < 3 {
		return nil
	}

	startLine := int(node.StartPosition().Row) + 1
	endLine := int(node.EndPosition().Row) + 1

	s := &Span{
		Type:      t,
		Name:      e.nodeName(node, t, src, code),
		StartLine: startLine,
		EndLine:   endLine,
		Code:      code,
	}

	if t == SpanCondIfdef && strings.HasPrefix(strings.TrimSpace(code), "#ifndef") {
		s.Type = SpanCondIfndef
	}
	if !s.Type.IsConditional() {
		s.Doc, s.Comments = AssociateComments(source, startLine, e.opts.IncludeComments, e.opts.MaxCommentGap)
	}
	return s
}

var (
	funcNameRe    = regexp.MustCompile(`(?:\w+[\s\*]+)+(\w+)\s*\(`)
	typedefTailRe = regexp.MustCompile(`(\w+)\s*;\s*$`)
)

// nodeName extracts the unit name from a node, preferring grammar fields
// and falling back to the same patterns the regex extractor uses.
func (e *GrammarExtractor) nodeName(node *sitter.Node, t SpanType, src []byte, code string) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return string(src[nameNode.StartByte():nameNode.EndByte()])
	}

	switch t {
	case SpanCondIf:
		if cond := node.ChildByFieldName("condition"); cond != nil {
			return strings.TrimSpace(string(src[cond.StartByte():cond.EndByte()]))
		}
	case SpanFunction, SpanDeclaration:
		if m := funcNameRe.FindStringSubmatch(code); m != nil {
			return m[1]
		}
	case SpanTypedef:
		if m := typedefTailRe.FindStringSubmatch(code); m != nil {
			return m[1]
		}
	}
	return ""
}
