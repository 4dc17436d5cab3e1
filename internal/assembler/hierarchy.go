package assembler

import (
	"sort"
	"strings"

	"github.com/seg-flt/hdrscan/internal/extraction"
)

// Forest is the span arena produced by the hierarchy builder. Parent links
// are plain indexes and children are owned index lists, so the structure
// carries no pointer cycles. Index -1 means no parent.
type Forest struct {
	Spans    []extraction.Span
	Parent   []int
	Children [][]int
	Roots    []int
}

// Len returns the number of spans in the arena.
func (f *Forest) Len() int { return len(f.Spans) }

// PreOrder returns root followed by its descendants in depth-first source
// order.
func (f *Forest) PreOrder(root int) []int {
	var out []int
	var walk func(i int)
	walk = func(i int) {
		out = append(out, i)
		for _, c := range f.Children[i] {
			walk(c)
		}
	}
	walk(root)
	return out
}

// block is a paired conditional-compilation region. closer is -1 when the
// opener was never closed (the block then runs to the last known line) or
// when the opener's own range already covers the body.
type block struct {
	opener int
	closer int
	start  int
	end    int
	label  string
}

// Builder constructs a containment forest from a flat span set.
type Builder struct {
	refiner DepthRefiner
}

// NewBuilder creates a hierarchy builder. A nil refiner disables depth
// refinement.
func NewBuilder(refiner DepthRefiner) *Builder {
	if refiner == nil {
		refiner = NoopRefiner{}
	}
	return &Builder{refiner: refiner}
}

// Build orders the spans, pairs conditional blocks, promotes include
// guards, assigns parents by strict line-range containment and back-fills
// depth and conditional labels. Overlapping-but-not-nested ranges are an
// extraction artifact: the later span becomes a root, never an error.
func (b *Builder) Build(spans []extraction.Span) *Forest {
	arena := make([]extraction.Span, len(spans))
	copy(arena, spans)
	sortSpans(arena)

	blocks := pairDirectives(arena)
	if promoted := promoteGuards(&arena, blocks); promoted {
		sortSpans(arena)
		blocks = pairDirectives(arena)
	}

	f := &Forest{
		Spans:    arena,
		Parent:   make([]int, len(arena)),
		Children: make([][]int, len(arena)),
	}

	// A directive opener contains the spans inside its paired block, not
	// merely the ones inside its own line range.
	effEnd := make([]int, len(arena))
	for i := range arena {
		effEnd[i] = arena[i].EndLine
	}
	for _, blk := range blocks {
		if blk.end > effEnd[blk.opener] {
			effEnd[blk.opener] = blk.end
		}
	}

	var stack []int
	for i := range arena {
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if arena[top].StartLine < arena[i].StartLine && effEnd[top] >= arena[i].EndLine {
				break
			}
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			f.Parent[i] = top
			f.Children[top] = append(f.Children[top], i)
		} else {
			f.Parent[i] = -1
			f.Roots = append(f.Roots, i)
		}
		stack = append(stack, i)
	}

	f.computeDepth()
	f.dedup()
	f.computeDepth()
	f.fillCondLabels()
	b.refiner.Refine(f)
	return f
}

// sortSpans orders by start line, wider ranges first among equal starts.
func sortSpans(spans []extraction.Span) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].StartLine != spans[j].StartLine {
			return spans[i].StartLine < spans[j].StartLine
		}
		return spans[i].EndLine > spans[j].EndLine
	})
}

// pairDirectives matches conditional openers with their #endif using a
// nesting stack. Openers whose own range is multi-line already cover their
// body (grammar extraction) and pair with nothing. Unclosed openers run to
// the last line any span reaches.
func pairDirectives(arena []extraction.Span) []block {
	maxLine := 0
	for i := range arena {
		if arena[i].EndLine > maxLine {
			maxLine = arena[i].EndLine
		}
	}

	var blocks []block
	var open []int
	for i := range arena {
		s := &arena[i]
		switch {
		case s.Type.IsConditional():
			if s.EndLine > s.StartLine {
				blocks = append(blocks, block{
					opener: i, closer: -1,
					start: s.StartLine, end: s.EndLine,
					label: s.Name,
				})
				continue
			}
			open = append(open, i)
		case s.Type == extraction.SpanCondEndif:
			if len(open) == 0 {
				continue // stray endif, extraction artifact
			}
			oi := open[len(open)-1]
			open = open[:len(open)-1]
			blocks = append(blocks, block{
				opener: oi, closer: i,
				start: arena[oi].StartLine, end: s.EndLine,
				label: arena[oi].Name,
			})
		}
	}
	for _, oi := range open {
		blocks = append(blocks, block{
			opener: oi, closer: -1,
			start: arena[oi].StartLine, end: maxLine,
			label: arena[oi].Name,
		})
	}
	return blocks
}

// promoteGuards rewrites the include-guard idiom — an #ifndef NAME whose
// block opens with a valueless #define NAME — into one synthetic guard
// container covering the full block. The opener, the define and the
// closing endif are absorbed into the container. Reports whether the arena
// changed.
func promoteGuards(arena *[]extraction.Span, blocks []block) bool {
	spans := *arena
	drop := make(map[int]bool)
	var guards []extraction.Span

	for _, blk := range blocks {
		opener := &spans[blk.opener]
		if opener.Type != extraction.SpanCondIfndef || opener.Name == "" || drop[blk.opener] {
			continue
		}

		defIdx := -1
		for i := range spans {
			if spans[i].Type != extraction.SpanMacro || spans[i].Name != opener.Name {
				continue
			}
			gap := spans[i].StartLine - opener.StartLine
			if gap > 0 && gap <= 2 && isValuelessDefine(spans[i].Code, spans[i].Name) {
				defIdx = i
				break
			}
		}
		if defIdx < 0 {
			continue
		}

		drop[blk.opener] = true
		drop[defIdx] = true
		if blk.closer >= 0 {
			drop[blk.closer] = true
		}
		guards = append(guards, extraction.Span{
			Type:      extraction.SpanGuard,
			Name:      opener.Name,
			StartLine: blk.start,
			EndLine:   blk.end,
			Code:      opener.Code + "\n" + spans[defIdx].Code,
		})
	}

	if len(guards) == 0 {
		return false
	}

	kept := make([]extraction.Span, 0, len(spans)-len(drop)+len(guards))
	for i := range spans {
		if !drop[i] {
			kept = append(kept, spans[i])
		}
	}
	kept = append(kept, guards...)
	*arena = kept
	return true
}

// isValuelessDefine reports whether code is "#define name" with no value.
func isValuelessDefine(code, name string) bool {
	rest := strings.TrimSpace(code)
	rest = strings.TrimPrefix(rest, "#")
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, "define")
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, name)
	return strings.TrimSpace(rest) == ""
}

func (f *Forest) computeDepth() {
	for _, r := range f.Roots {
		for _, i := range f.PreOrder(r) {
			if p := f.Parent[i]; p >= 0 {
				f.Spans[i].Depth = f.Spans[p].Depth + 1
			} else {
				f.Spans[i].Depth = 0
			}
		}
	}
}

// fillCondLabels sets each span's conditional label to the name of its
// nearest conditional or guard ancestor.
func (f *Forest) fillCondLabels() {
	for i := range f.Spans {
		for p := f.Parent[i]; p >= 0; p = f.Parent[p] {
			t := f.Spans[p].Type
			if t.IsConditional() || t == extraction.SpanGuard {
				f.Spans[i].CondLabel = f.Spans[p].Name
				break
			}
		}
	}
}

// dedup collapses spans identical in (type, name, start, end), keeping the
// one with more children, then greater depth, then a parent link. Losers'
// children move to the winner; the arena is compacted afterwards.
func (f *Forest) dedup() {
	groups := make(map[extraction.Key][]int)
	for i := range f.Spans {
		k := f.Spans[i].Key()
		groups[k] = append(groups[k], i)
	}

	removed := make([]bool, len(f.Spans))
	dirty := false
	for _, idxs := range groups {
		if len(idxs) < 2 {
			continue
		}
		dirty = true
		winner := idxs[0]
		for _, i := range idxs[1:] {
			if f.better(i, winner) {
				winner = i
			}
		}
		for _, i := range idxs {
			if i == winner {
				continue
			}
			removed[i] = true
			for _, c := range f.Children[i] {
				f.Parent[c] = winner
				f.Children[winner] = append(f.Children[winner], c)
			}
			f.Children[i] = nil
		}
	}
	if !dirty {
		return
	}
	f.compact(removed)
}

func (f *Forest) better(i, j int) bool {
	if len(f.Children[i]) != len(f.Children[j]) {
		return len(f.Children[i]) > len(f.Children[j])
	}
	if f.Spans[i].Depth != f.Spans[j].Depth {
		return f.Spans[i].Depth > f.Spans[j].Depth
	}
	return f.Parent[i] >= 0 && f.Parent[j] < 0
}

// compact rebuilds the arena without removed spans, remapping every index.
func (f *Forest) compact(removed []bool) {
	remap := make([]int, len(f.Spans))
	var spans []extraction.Span
	for i := range f.Spans {
		if removed[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(spans)
		spans = append(spans, f.Spans[i])
	}

	parent := make([]int, len(spans))
	children := make([][]int, len(spans))
	var roots []int
	for i := range f.Spans {
		ni := remap[i]
		if ni < 0 {
			continue
		}
		p := f.Parent[i]
		for p >= 0 && removed[p] {
			p = f.Parent[p]
		}
		if p >= 0 {
			parent[ni] = remap[p]
		} else {
			parent[ni] = -1
			roots = append(roots, ni)
		}
		for _, c := range f.Children[i] {
			if nc := remap[c]; nc >= 0 {
				children[ni] = append(children[ni], nc)
			}
		}
		sort.Slice(children[ni], func(a, b int) bool {
			return spans[children[ni][a]].StartLine < spans[children[ni][b]].StartLine
		})
	}
	sort.Ints(roots)

	f.Spans = spans
	f.Parent = parent
	f.Children = children
	f.Roots = roots
}
