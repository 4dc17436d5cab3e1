package assembler

import (
	"strings"

	"github.com/seg-flt/hdrscan/internal/extraction"
)

// DepthRefiner adjusts span depths after structural hierarchy is fixed.
// Containment logic never depends on it; implementations only refine the
// indentation depth.
type DepthRefiner interface {
	Refine(f *Forest)
}

// NoopRefiner leaves depths untouched.
type NoopRefiner struct{}

func (NoopRefiner) Refine(*Forest) {}

// DefaultFuncBlockMacros are macro names treated as opening a function-like
// block. The set is corpus specific and configurable, not a general rule.
var DefaultFuncBlockMacros = []string{"__FUNCBLOCK__"}

// BraceDepthRefiner raises the depth of aggregate-type spans nested by
// brace counting inside another aggregate, or lexically inside a
// function-block macro guard. Regex extraction under-nests such spans; the
// brace count recovers a depth usable for indentation. The heuristic is
// approximate and deliberately isolated here.
type BraceDepthRefiner struct {
	triggers []string
}

// NewBraceDepthRefiner creates the refiner. With no triggers it recognizes
// DefaultFuncBlockMacros.
func NewBraceDepthRefiner(triggers ...string) *BraceDepthRefiner {
	if len(triggers) == 0 {
		triggers = DefaultFuncBlockMacros
	}
	return &BraceDepthRefiner{triggers: triggers}
}

var aggregateKinds = map[extraction.SpanType]bool{
	extraction.SpanStruct:  true,
	extraction.SpanEnum:    true,
	extraction.SpanUnion:   true,
	extraction.SpanTypedef: true,
}

func (r *BraceDepthRefiner) Refine(f *Forest) {
	for i := range f.Spans {
		s := &f.Spans[i]
		if !aggregateKinds[s.Type] {
			continue
		}
		p := f.Parent[i]
		if p < 0 {
			continue
		}
		ps := &f.Spans[p]

		prefix := codeBefore(ps, s.StartLine)
		if !aggregateKinds[ps.Type] && !r.hasTrigger(prefix) {
			continue
		}
		nest := strings.Count(prefix, "{") - strings.Count(prefix, "}")
		if nest < 1 {
			continue
		}
		if d := ps.Depth + nest; d > s.Depth {
			s.Depth = d
		}
	}
}

func (r *BraceDepthRefiner) hasTrigger(prefix string) bool {
	for _, t := range r.triggers {
		if strings.Contains(prefix, t) {
			return true
		}
	}
	return false
}

// codeBefore returns the parent's raw text above the child's start line.
func codeBefore(parent *extraction.Span, childStart int) string {
	rel := childStart - parent.StartLine
	if rel <= 0 {
		return ""
	}
	lines := strings.Split(parent.Code, "\n")
	if rel > len(lines) {
		rel = len(lines)
	}
	return strings.Join(lines[:rel], "\n")
}
