package assembler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seg-flt/hdrscan/internal/extraction"
)

// Test Plan:
// - Documentation sections render blank-line separated, code last
// - Plain comments render after documentation, before code
// - Subtree rendering indents descendants relative to the subtree root
// - Flat mode drops indentation
// - Context paths join type:name from root to span

func TestFormatter_Unit(t *testing.T) {
	t.Parallel()

	s := extraction.Span{
		Type: extraction.SpanFunction,
		Name: "uart_open",
		Code: "int uart_open(int port);",
		Doc: &extraction.DocComment{
			Brief:   "Opens a UART port.",
			Text:    "Blocks until the port is ready.",
			Params:  []string{"port index of the port"},
			Returns: []string{"0 on success"},
			Retvals: []string{"-EBUSY port in use"},
		},
		Comments: []extraction.Comment{{Text: "legacy API"}},
	}

	f := &Formatter{RespectHierarchy: true}
	got := f.Unit(&s)

	want := strings.Join([]string{
		"Brief: Opens a UART port.",
		"Blocks until the port is ready.",
		"Parameters:\n- port index of the port",
		"Returns:\n- 0 on success\n- -EBUSY port in use",
		"Comment: legacy API",
		"int uart_open(int port);",
	}, "\n\n")
	assert.Equal(t, want, got)
}

func TestFormatter_UnitBareCode(t *testing.T) {
	t.Parallel()

	f := &Formatter{}
	s := extraction.Span{Code: "#define X 1"}
	assert.Equal(t, "#define X 1", f.Unit(&s))
}

func TestFormatter_Subtree(t *testing.T) {
	t.Parallel()

	fr := NewBuilder(nil).Build([]extraction.Span{
		sp(extraction.SpanStruct, "outer", 1, 6, "struct outer {"),
		sp(extraction.SpanStruct, "inner", 2, 4, "struct inner;"),
	})

	f := &Formatter{RespectHierarchy: true}
	got := f.Subtree(fr, fr.Roots[0], nil)
	assert.Equal(t, "struct outer {\n\n  struct inner;", got)
}

func TestFormatter_SubtreeFlat(t *testing.T) {
	t.Parallel()

	fr := NewBuilder(nil).Build([]extraction.Span{
		sp(extraction.SpanStruct, "outer", 1, 6, "struct outer {"),
		sp(extraction.SpanStruct, "inner", 2, 4, "struct inner;"),
	})

	f := &Formatter{RespectHierarchy: false}
	got := f.Subtree(fr, fr.Roots[0], nil)
	assert.Equal(t, "struct outer {\n\nstruct inner;", got)
}

func TestContextPath(t *testing.T) {
	t.Parallel()

	fr := NewBuilder(nil).Build([]extraction.Span{
		sp(extraction.SpanGuard, "CFG_H", 1, 20, ""),
		sp(extraction.SpanStruct, "cfg", 2, 10, ""),
		sp(extraction.SpanStruct, "", 3, 5, ""),
	})

	anon := -1
	for i := range fr.Spans {
		if fr.Spans[i].Type == extraction.SpanStruct && fr.Spans[i].Name == "" {
			anon = i
		}
	}
	require.GreaterOrEqual(t, anon, 0)
	assert.Equal(t, "include_guard:CFG_H/struct_specifier:cfg/struct_specifier", ContextPath(fr, anon))
}
