package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan:
// - A representative header yields every expected span type
// - Function bodies close with balanced brace scanning
// - Macros classify as object vs function style; continuations extend the range
// - Conditional directives carry no comments and a cleaned condition
// - File headers and section headers honor their toggles
// - Malformed input degrades to fewer spans, never an error
// - Extraction is deterministic and sorted by start line

const gpioHeader = `/**
 * @brief GPIO driver interface.
 */

#ifndef GPIO_H
#define GPIO_H

// ===== Configuration =====

/** Number of ports. */
#define GPIO_PORTS 4
#define GPIO_MASK(n) (1u << (n))
#define GPIO_SEQ \
    step_a(); \
    step_b()

typedef unsigned int gpio_pin_t;

/** Pin configuration. */
typedef struct {
    gpio_pin_t pin;
    int mode;
} gpio_cfg_t;

struct gpio_state {
    int level;
};

enum gpio_mode {
    GPIO_IN,
    GPIO_OUT,
};

#ifdef GPIO_HAS_IRQ /* optional */
/** Enables the pin interrupt. */
void gpio_irq_enable(gpio_pin_t pin);
#endif

static inline int gpio_read(gpio_pin_t pin)
{
    return (int)(pin * 2);
}

#endif /* GPIO_H */
`

func findSpan(spans []Span, t SpanType, name string) *Span {
	for i := range spans {
		if spans[i].Type == t && spans[i].Name == name {
			return &spans[i]
		}
	}
	return nil
}

func extractGPIO(t *testing.T, opts Options) []Span {
	t.Helper()
	e := NewPatternExtractor(nil, opts)
	spans, err := e.Extract(context.Background(), gpioHeader, "include/gpio.h")
	require.NoError(t, err)
	return spans
}

func TestPatternExtractor_SpanTypes(t *testing.T) {
	t.Parallel()

	spans := extractGPIO(t, DefaultOptions())

	assert.NotNil(t, findSpan(spans, SpanMacro, "GPIO_PORTS"))
	assert.NotNil(t, findSpan(spans, SpanMacroFunc, "GPIO_MASK"))
	assert.NotNil(t, findSpan(spans, SpanTypedef, "gpio_pin_t"))
	assert.NotNil(t, findSpan(spans, SpanTypedef, "gpio_cfg_t"))
	assert.NotNil(t, findSpan(spans, SpanStruct, "gpio_state"))
	assert.NotNil(t, findSpan(spans, SpanEnum, "gpio_mode"))
	assert.NotNil(t, findSpan(spans, SpanDeclaration, "gpio_irq_enable"))
	assert.NotNil(t, findSpan(spans, SpanFunction, "gpio_read"))
	assert.NotNil(t, findSpan(spans, SpanCondIfndef, "GPIO_H"))
	assert.NotNil(t, findSpan(spans, SpanCondIfdef, "GPIO_HAS_IRQ"))
}

func TestPatternExtractor_FunctionBody(t *testing.T) {
	t.Parallel()

	spans := extractGPIO(t, DefaultOptions())
	fn := findSpan(spans, SpanFunction, "gpio_read")
	require.NotNil(t, fn)

	assert.Contains(t, fn.Code, "return (int)(pin * 2);")
	assert.Equal(t, byte('}'), fn.Code[len(fn.Code)-1])
	assert.Greater(t, fn.EndLine, fn.StartLine)
}

func TestPatternExtractor_MacroContinuation(t *testing.T) {
	t.Parallel()

	spans := extractGPIO(t, DefaultOptions())
	m := findSpan(spans, SpanMacro, "GPIO_SEQ")
	require.NotNil(t, m)

	assert.Equal(t, m.StartLine+2, m.EndLine)
	assert.Contains(t, m.Code, "step_b()")
}

func TestPatternExtractor_MacroDoc(t *testing.T) {
	t.Parallel()

	spans := extractGPIO(t, DefaultOptions())
	m := findSpan(spans, SpanMacro, "GPIO_PORTS")
	require.NotNil(t, m)
	require.NotNil(t, m.Doc)
	assert.Contains(t, m.Doc.Text, "Number of ports.")
}

func TestPatternExtractor_Directives(t *testing.T) {
	t.Parallel()

	spans := extractGPIO(t, DefaultOptions())

	guard := findSpan(spans, SpanCondIfndef, "GPIO_H")
	require.NotNil(t, guard)
	assert.Nil(t, guard.Doc)
	assert.Empty(t, guard.Comments)

	// Trailing comment stripped from the condition.
	assert.NotNil(t, findSpan(spans, SpanCondIfdef, "GPIO_HAS_IRQ"))

	endifs := 0
	for _, s := range spans {
		if s.Type == SpanCondEndif {
			endifs++
		}
	}
	assert.Equal(t, 2, endifs)
}

func TestPatternExtractor_FileHeader(t *testing.T) {
	t.Parallel()

	spans := extractGPIO(t, DefaultOptions())
	hdr := findSpan(spans, SpanFileHeader, "gpio.h")
	require.NotNil(t, hdr)
	assert.Equal(t, 1, hdr.StartLine)
	assert.Contains(t, hdr.Code, "GPIO driver interface")
}

func TestPatternExtractor_FileHeaderDisabled(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.IncludeFileHeaders = false
	spans := extractGPIO(t, opts)
	assert.Nil(t, findSpan(spans, SpanFileHeader, "gpio.h"))
}

func TestPatternExtractor_SectionHeader(t *testing.T) {
	t.Parallel()

	spans := extractGPIO(t, DefaultOptions())
	sec := findSpan(spans, SpanSectionHdr, "Configuration")
	require.NotNil(t, sec)
}

func TestPatternExtractor_TypedefAggregate(t *testing.T) {
	t.Parallel()

	spans := extractGPIO(t, DefaultOptions())
	td := findSpan(spans, SpanTypedef, "gpio_cfg_t")
	require.NotNil(t, td)

	assert.Contains(t, td.Code, "gpio_pin_t pin;")
	assert.Equal(t, byte(';'), td.Code[len(td.Code)-1])
	require.NotNil(t, td.Doc)
	assert.Contains(t, td.Doc.Text, "Pin configuration.")
}

func TestPatternExtractor_UnclosedBrace(t *testing.T) {
	t.Parallel()

	e := NewPatternExtractor(nil, DefaultOptions())
	spans, err := e.Extract(context.Background(), "int broken(void) {\n  no_close();\n", "bad.h")
	require.NoError(t, err)
	assert.Nil(t, findSpan(spans, SpanFunction, "broken"))
}

func TestPatternExtractor_SortedAndDeterministic(t *testing.T) {
	t.Parallel()

	a := extractGPIO(t, DefaultOptions())
	b := extractGPIO(t, DefaultOptions())
	require.Equal(t, a, b)

	for i := 1; i < len(a); i++ {
		assert.LessOrEqual(t, a[i-1].StartLine, a[i].StartLine)
	}
}

func TestPatternExtractor_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewPatternExtractor(nil, DefaultOptions())
	_, err := e.Extract(ctx, gpioHeader, "gpio.h")
	assert.Error(t, err)
}
