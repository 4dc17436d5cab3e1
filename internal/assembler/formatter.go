package assembler

import (
	"strings"

	"github.com/seg-flt/hdrscan/internal/extraction"
)

const indentStep = "  "

// Formatter renders spans into chunk text. With RespectHierarchy set,
// subtree rendering indents descendants by their depth relative to the
// subtree root; flat rendering concatenates without indentation and omits
// context paths.
type Formatter struct {
	RespectHierarchy bool
}

// Unit renders one span alone: documentation sections, then plain
// comments, then the raw code, blank-line separated.
func (f *Formatter) Unit(s *extraction.Span) string {
	pre := f.Preamble(s)
	if pre == "" {
		return s.Code
	}
	return pre + "\n\n" + s.Code
}

// Preamble renders the documentation and comment sections without the code.
func (f *Formatter) Preamble(s *extraction.Span) string {
	var sections []string

	if d := s.Doc; d != nil {
		if d.Brief != "" {
			sections = append(sections, "Brief: "+d.Brief)
		}
		if d.Text != "" {
			sections = append(sections, d.Text)
		}
		if len(d.Params) > 0 {
			sections = append(sections, listSection("Parameters:", d.Params))
		}
		if rets := append(append([]string{}, d.Returns...), d.Retvals...); len(rets) > 0 {
			sections = append(sections, listSection("Returns:", rets))
		}
		if len(d.Notes) > 0 {
			sections = append(sections, listSection("Notes:", d.Notes))
		}
		if len(d.Warnings) > 0 {
			sections = append(sections, listSection("Warnings:", d.Warnings))
		}
	}
	for _, c := range s.Comments {
		if c.Text != "" {
			sections = append(sections, "Comment: "+c.Text)
		}
	}

	return strings.Join(sections, "\n\n")
}

func listSection(title string, items []string) string {
	var b strings.Builder
	b.WriteString(title)
	for _, it := range items {
		b.WriteString("\n- ")
		b.WriteString(it)
	}
	return b.String()
}

// Subtree renders a span and its descendants in source order. keep filters
// spans out of the rendering entirely; nil keeps everything.
func (f *Formatter) Subtree(fr *Forest, root int, keep []bool) string {
	base := fr.Spans[root].Depth
	var parts []string
	var walk func(i int)
	walk = func(i int) {
		if keep == nil || keep[i] {
			text := f.Unit(&fr.Spans[i])
			if f.RespectHierarchy {
				if rel := fr.Spans[i].Depth - base; rel > 0 {
					text = indentText(text, rel)
				}
			}
			parts = append(parts, text)
		}
		for _, c := range fr.Children[i] {
			walk(c)
		}
	}
	walk(root)
	return strings.Join(parts, "\n\n")
}

func indentText(text string, levels int) string {
	pad := strings.Repeat(indentStep, levels)
	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		if ln != "" {
			lines[i] = pad + ln
		}
	}
	return strings.Join(lines, "\n")
}

// ContextPath is the /-joined chain of type:name (bare type when unnamed)
// from the forest root down to the span. Metadata only, never identity.
func ContextPath(fr *Forest, idx int) string {
	var segs []string
	for i := idx; i >= 0; i = fr.Parent[i] {
		s := &fr.Spans[i]
		seg := string(s.Type)
		if s.Name != "" {
			seg += ":" + s.Name
		}
		segs = append(segs, seg)
	}
	for l, r := 0, len(segs)-1; l < r; l, r = l+1, r-1 {
		segs[l], segs[r] = segs[r], segs[l]
	}
	return strings.Join(segs, "/")
}
