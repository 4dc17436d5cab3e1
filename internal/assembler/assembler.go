package assembler

import (
	"strings"

	"github.com/seg-flt/hdrscan/internal/extraction"
)

// Configuration defaults for the chunk packing surface.
const (
	DefaultMaxChunkSize = 1600
	DefaultMinChunkSize = 200
	DefaultOverlapUnits = 1
)

// rootLabel groups spans outside any conditional block.
const rootLabel = "root"

// Config is the chunk assembly configuration surface.
type Config struct {
	// MaxChunkSize caps chunk content in characters. A target, not an
	// absolute ceiling: atomic indivisible units still emit oversized.
	MaxChunkSize int
	// MinChunkSize is advisory. A group's final partial buffer is emitted
	// below it rather than merged across groups, which would break
	// conditional-context grouping.
	MinChunkSize int
	// OverlapUnits repeats that many trailing units across a chunk
	// boundary within a group.
	OverlapUnits int
	// OneUnitPerChunk disables buffering: one chunk per forest root.
	OneUnitPerChunk bool
	// SemanticOnly restricts output to semantic span types, keeping the
	// ancestors of kept spans.
	SemanticOnly bool
	// RespectHierarchy enables indentation and context-path rendering.
	RespectHierarchy bool
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize:     DefaultMaxChunkSize,
		MinChunkSize:     DefaultMinChunkSize,
		OverlapUnits:     DefaultOverlapUnits,
		RespectHierarchy: true,
	}
}

// Assembler packs a span forest into size-bounded chunks. It is
// deterministic and side-effect free; one instance may be shared across
// files as long as the configuration does not change.
type Assembler struct {
	cfg  Config
	fmtr *Formatter
}

// New creates an assembler. A non-positive MaxChunkSize falls back to the
// default.
func New(cfg Config) *Assembler {
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = DefaultMaxChunkSize
	}
	return &Assembler{
		cfg:  cfg,
		fmtr: &Formatter{RespectHierarchy: cfg.RespectHierarchy},
	}
}

// Assemble produces the chunk list for one file's forest.
func (a *Assembler) Assemble(f *Forest, filePath string) []Chunk {
	keep := a.keepSet(f)
	if a.cfg.OneUnitPerChunk {
		return a.oneUnit(f, keep, filePath)
	}
	return a.merge(f, keep, filePath)
}

// keepSet marks the spans surviving the semantic filter. Every ancestor of
// a kept span is kept so context paths stay resolvable.
func (a *Assembler) keepSet(f *Forest) []bool {
	keep := make([]bool, f.Len())
	if !a.cfg.SemanticOnly {
		for i := range keep {
			keep[i] = true
		}
		return keep
	}
	for i := range f.Spans {
		if !extraction.SemanticTypes[f.Spans[i].Type] {
			continue
		}
		for j := i; j >= 0 && !keep[j]; j = f.Parent[j] {
			keep[j] = true
		}
	}
	return keep
}

func (a *Assembler) unitMeta(f *Forest, i int) ChunkUnit {
	s := &f.Spans[i]
	ctx := ""
	if a.cfg.RespectHierarchy {
		ctx = ContextPath(f, i)
	}
	return ChunkUnit{
		Type:    string(s.Type),
		Name:    s.Name,
		Start:   s.StartLine,
		End:     s.EndLine,
		Depth:   s.Depth,
		Context: ctx,
	}
}

// oneUnit emits exactly one chunk per kept forest root, rendering the
// root's full subtree.
func (a *Assembler) oneUnit(f *Forest, keep []bool, filePath string) []Chunk {
	var chunks []Chunk
	for _, r := range f.Roots {
		if !keep[r] {
			continue
		}

		var units []ChunkUnit
		var cond []string
		seen := make(map[string]bool)
		for _, i := range f.PreOrder(r) {
			if !keep[i] {
				continue
			}
			units = append(units, a.unitMeta(f, i))
			if l := f.Spans[i].CondLabel; l != "" && !seen[l] {
				seen[l] = true
				cond = append(cond, l)
			}
		}

		root := &f.Spans[r]
		chunks = append(chunks, Chunk{
			ID:          ChunkID(filePath, root.StartLine, root.EndLine),
			Content:     a.fmtr.Subtree(f, r, keep),
			Units:       units,
			CondContext: cond,
		})
	}
	return chunks
}

// bufUnit is one packable unit: a formatted span or split fragment.
type bufUnit struct {
	content string
	meta    ChunkUnit
	label   string
}

// merge runs the split-then-merge packing: oversized atomic spans are
// partitioned first, then units sharing a conditional label accumulate
// into size-bounded buffers.
func (a *Assembler) merge(f *Forest, keep []bool, filePath string) []Chunk {
	units := a.buildUnits(f, keep)

	var order []string
	grouped := make(map[string][]bufUnit)
	for _, u := range units {
		if _, ok := grouped[u.label]; !ok {
			order = append(order, u.label)
		}
		grouped[u.label] = append(grouped[u.label], u)
	}

	var chunks []Chunk
	for _, lbl := range order {
		chunks = append(chunks, a.mergeGroup(grouped[lbl], filePath)...)
	}
	return chunks
}

// buildUnits formats every kept span in source order, splitting the ones
// that cannot fit a chunk on their own.
func (a *Assembler) buildUnits(f *Forest, keep []bool) []bufUnit {
	var units []bufUnit
	for i := range f.Spans {
		if !keep[i] {
			continue
		}
		s := &f.Spans[i]
		meta := a.unitMeta(f, i)
		label := s.CondLabel
		if label == "" {
			label = rootLabel
		}

		content := a.fmtr.Unit(s)
		if len(content) > a.cfg.MaxChunkSize && len(f.Children[i]) == 0 && !s.Type.IsMacro() {
			units = append(units, a.splitSpan(s, meta, label)...)
			continue
		}
		units = append(units, bufUnit{content: content, meta: meta, label: label})
	}
	return units
}

// splitSpan partitions an oversized atomic span line-wise into "<type>_part"
// fragments. Only the first fragment keeps the documentation preamble;
// later fragments carry bare code so the same documentation is not
// duplicated across fragments.
func (a *Assembler) splitSpan(s *extraction.Span, meta ChunkUnit, label string) []bufUnit {
	max := a.cfg.MaxChunkSize
	partType := string(s.Type.Part())

	var out []bufUnit
	var buf []string
	bufLen := 0
	codeLines := 0
	curStart := s.StartLine

	if pre := a.fmtr.Preamble(s); pre != "" {
		buf = append(buf, pre, "")
		bufLen = len(pre) + 2
	}

	emit := func(endLine int) {
		out = append(out, bufUnit{
			content: strings.Join(buf, "\n"),
			meta: ChunkUnit{
				Type:    partType,
				Name:    meta.Name,
				Start:   curStart,
				End:     endLine,
				Depth:   meta.Depth,
				Context: meta.Context,
			},
			label: label,
		})
	}

	lines := strings.Split(s.Code, "\n")
	for li, ln := range lines {
		abs := s.StartLine + li
		if codeLines > 0 && bufLen+1+len(ln) > max {
			emit(abs - 1)
			buf, bufLen, codeLines = nil, 0, 0
			curStart = abs
		}
		if len(buf) > 0 {
			bufLen++
		}
		buf = append(buf, ln)
		bufLen += len(ln)
		codeLines++
	}
	if codeLines > 0 {
		emit(s.StartLine + len(lines) - 1)
	}
	return out
}

// mergeGroup packs one conditional group's units in source order. The
// buffer flushes before overflowing; overlap units reseed the next buffer
// verbatim. The final partial buffer always emits, below MinChunkSize or
// not, since merging across groups is off the table.
func (a *Assembler) mergeGroup(units []bufUnit, filePath string) []Chunk {
	max := a.cfg.MaxChunkSize
	var chunks []Chunk
	var buf []bufUnit
	bufLen := 0

	for _, u := range units {
		if len(buf) > 0 && bufLen+2+len(u.content) > max {
			chunks = append(chunks, a.emitChunk(buf, filePath))
			k := a.cfg.OverlapUnits
			if k > len(buf) {
				k = len(buf)
			}
			if k > 0 {
				tail := make([]bufUnit, k)
				copy(tail, buf[len(buf)-k:])
				buf = tail
			} else {
				buf = nil
			}
			bufLen = joinedLen(buf)
		}
		if len(buf) > 0 {
			bufLen += 2
		}
		buf = append(buf, u)
		bufLen += len(u.content)
	}
	if len(buf) > 0 {
		chunks = append(chunks, a.emitChunk(buf, filePath))
	}
	return chunks
}

func joinedLen(buf []bufUnit) int {
	n := 0
	for i, u := range buf {
		if i > 0 {
			n += 2
		}
		n += len(u.content)
	}
	return n
}

func (a *Assembler) emitChunk(buf []bufUnit, filePath string) Chunk {
	parts := make([]string, len(buf))
	units := make([]ChunkUnit, len(buf))
	var cond []string
	seen := make(map[string]bool)
	for i, u := range buf {
		parts[i] = u.content
		units[i] = u.meta
		if u.label != rootLabel && !seen[u.label] {
			seen[u.label] = true
			cond = append(cond, u.label)
		}
	}
	first := buf[0].meta
	return Chunk{
		ID:          ChunkID(filePath, first.Start, first.End),
		Content:     strings.Join(parts, "\n\n"),
		Units:       units,
		CondContext: cond,
	}
}
