package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan:
// - Nearest doc comment within the gap window is associated
// - Comments beyond the gap window are ignored
// - Equidistant candidates resolve to the earlier start
// - Doxygen tags parse into structured fields
// - Plain comments are collected separately from doc comments

func TestNearestComment_WithinGap(t *testing.T) {
	t.Parallel()

	source := `/** Frees the buffer. */
void buf_free(buf_t *b);
`
	c := NearestComment(source, 2, DocComments, DefaultMaxCommentGap)
	require.NotNil(t, c)
	assert.Equal(t, 1, c.LineGap)
	assert.Contains(t, c.Raw, "Frees the buffer")
}

func TestNearestComment_GapTooLarge(t *testing.T) {
	t.Parallel()

	source := `/** Far away. */






void buf_free(buf_t *b);
`
	c := NearestComment(source, 8, DocComments, DefaultMaxCommentGap)
	assert.Nil(t, c)
}

func TestNearestComment_BlankLinesWithinGap(t *testing.T) {
	t.Parallel()

	source := `/** Close enough. */


void buf_free(buf_t *b);
`
	c := NearestComment(source, 4, DocComments, DefaultMaxCommentGap)
	require.NotNil(t, c)
	assert.Equal(t, 3, c.LineGap)
}

func TestNearestComment_TieKeepsEarlier(t *testing.T) {
	t.Parallel()

	// Two doc comments ending on the same line distance from the
	// target: the scan keeps the first candidate it saw.
	source := `/** first */ /** second */
void f(void);
`
	c := NearestComment(source, 2, DocComments, DefaultMaxCommentGap)
	require.NotNil(t, c)
	assert.Contains(t, c.Raw, "first")
}

func TestNearestComment_PlainClass(t *testing.T) {
	t.Parallel()

	source := `// internal helper
static void helper(void);
`
	c := NearestComment(source, 2, PlainComments, DefaultMaxCommentGap)
	require.NotNil(t, c)
	assert.Equal(t, "internal helper", c.Text)
}

func TestParseDoc_Tags(t *testing.T) {
	t.Parallel()

	raw := `/**
 * @brief Opens a channel to the device.
 * @param fd file descriptor
 * @param mode access mode
 * @return 0 on success
 * @retval -EINVAL bad mode
 * @note Not thread safe.
 * @warning Blocks on slow devices.
 *
 * Extended description goes here.
 */`
	doc := ParseDoc(&Comment{Raw: raw})
	require.NotNil(t, doc)
	assert.Equal(t, "Opens a channel to the device.", doc.Brief)
	assert.Equal(t, []string{"fd file descriptor", "mode access mode"}, doc.Params)
	assert.Equal(t, []string{"0 on success"}, doc.Returns)
	assert.Equal(t, []string{"-EINVAL bad mode"}, doc.Retvals)
	assert.Equal(t, []string{"Not thread safe."}, doc.Notes)
	assert.Equal(t, []string{"Blocks on slow devices."}, doc.Warnings)
	assert.Contains(t, doc.Text, "Extended description")
}

func TestParseDoc_NoTags(t *testing.T) {
	t.Parallel()

	doc := ParseDoc(&Comment{Raw: "/** Just a sentence. */"})
	require.NotNil(t, doc)
	assert.Empty(t, doc.Brief)
	assert.Equal(t, "Just a sentence.", doc.Text)
}

func TestParseDoc_RawOnly(t *testing.T) {
	t.Parallel()

	// A comment built from just the raw block parses the same as one
	// carrying pre-stripped text.
	doc := ParseDoc(&Comment{Raw: "/** @brief Resets the ring. */"})
	require.NotNil(t, doc)
	assert.Equal(t, "Resets the ring.", doc.Brief)

	// Pre-stripped text wins when both are set.
	doc = ParseDoc(&Comment{Raw: "/** @brief stale */", Text: "@brief Fresh text."})
	require.NotNil(t, doc)
	assert.Equal(t, "Fresh text.", doc.Brief)
}

func TestAssociateComments_DocAndPlain(t *testing.T) {
	t.Parallel()

	source := `/** Doc comment. */
// trailing note
int x;
`
	doc, plain := AssociateComments(source, 3, true, DefaultMaxCommentGap)
	require.NotNil(t, doc)
	require.Len(t, plain, 1)
	assert.Equal(t, "trailing note", plain[0].Text)
}

func TestAssociateComments_DuplicateSuppressed(t *testing.T) {
	t.Parallel()

	// The doc comment also matches the plain-comment scan; it must not
	// show up twice.
	source := `/** Only once. */
int x;
`
	doc, plain := AssociateComments(source, 2, true, DefaultMaxCommentGap)
	require.NotNil(t, doc)
	assert.Empty(t, plain)
}
