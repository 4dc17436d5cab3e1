package extraction

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxCommentGap is the largest number of lines allowed between a
// comment block's last line and the code it documents.
const DefaultMaxCommentGap = 5

var (
	// docCommentRe matches Doxygen-style blocks: /** ... */ and /*! ... */.
	docCommentRe = regexp.MustCompile(`(?s)/\*\*!.*?\*/|/\*\*.*?\*/|/\*!.*?\*/`)
	// plainCommentRe matches any C comment, block or line.
	plainCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/|//[^\n]*`)

	docTagRe        = regexp.MustCompile(`^@(\w+)\s*(.*)$`)
	leadingMarkerRe = regexp.MustCompile(`^\s*\*+ ?`)
	delimiterRe     = regexp.MustCompile(`^/\*+!?|\*+/$|^// ?|^//! ?`)
)

// CommentClass selects which comment blocks an association considers.
type CommentClass int

const (
	// DocComments restricts association to documentation blocks.
	DocComments CommentClass = iota
	// PlainComments considers every comment block.
	PlainComments
)

// lineOffsets returns the byte offset of the start of each line.
func lineOffsets(s string) []int {
	offs := []int{0}
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			offs = append(offs, i+1)
		}
	}
	return offs
}

// byteToLine converts a byte offset to a 1-based line number.
func byteToLine(b int, offs []int) int {
	return sort.Search(len(offs), func(i int) bool { return offs[i] > b })
}

// NearestComment returns the single nearest qualifying comment block whose
// end line precedes targetLine by no more than maxGap lines. Ties are broken
// by smallest gap, then by earliest textual start. Returns nil when no block
// qualifies.
func NearestComment(source string, targetLine int, class CommentClass, maxGap int) *Comment {
	re := plainCommentRe
	if class == DocComments {
		re = docCommentRe
	}

	offs := lineOffsets(source)
	var best *Comment
	bestGap := maxGap + 1

	for _, loc := range re.FindAllStringIndex(source, -1) {
		endLine := byteToLine(loc[1]-1, offs)
		gap := targetLine - endLine
		if gap < 0 || gap >= bestGap {
			continue
		}
		raw := source[loc[0]:loc[1]]
		best = &Comment{Raw: raw, Text: stripCommentMarkers(raw), LineGap: gap}
		bestGap = gap
	}

	return best
}

// stripCommentMarkers removes block delimiters and per-line leading markers.
func stripCommentMarkers(raw string) string {
	body := strings.TrimSpace(raw)
	body = delimiterRe.ReplaceAllString(body, "")
	body = strings.TrimSuffix(body, "*/")

	lines := strings.Split(body, "\n")
	for i, ln := range lines {
		ln = leadingMarkerRe.ReplaceAllString(ln, "")
		ln = strings.TrimPrefix(ln, "//! ")
		ln = strings.TrimPrefix(ln, "// ")
		ln = strings.TrimPrefix(ln, "//")
		lines[i] = ln
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ParseDoc parses a documentation comment into its structured form. Tag
// lines (@tag rest) are case-insensitive; everything else joins into the
// free-form text.
func ParseDoc(c *Comment) *DocComment {
	if c == nil {
		return nil
	}

	doc := &DocComment{Raw: c.Raw, LineGap: c.LineGap}

	// Comments built by hand carry only the raw block.
	text := c.Text
	if text == "" {
		text = stripCommentMarkers(c.Raw)
	}

	var brief, free []string
	for _, ln := range strings.Split(text, "\n") {
		m := docTagRe.FindStringSubmatch(strings.TrimSpace(ln))
		if m == nil {
			free = append(free, ln)
			continue
		}
		rest := m[2]
		switch strings.ToLower(m[1]) {
		case "brief":
			brief = append(brief, rest)
		case "param":
			doc.Params = append(doc.Params, rest)
		case "retval":
			doc.Retvals = append(doc.Retvals, rest)
		case "return", "returns":
			doc.Returns = append(doc.Returns, rest)
		case "note":
			doc.Notes = append(doc.Notes, rest)
		case "warning":
			doc.Warnings = append(doc.Warnings, rest)
		default:
			free = append(free, ln)
		}
	}

	doc.Brief = strings.Join(brief, " ")
	doc.Text = strings.TrimSpace(strings.Join(free, "\n"))
	return doc
}

// AssociateComments attaches the nearest documentation block and, when
// enabled, the nearest plain comment to the span starting at startLine.
// A plain comment identical to the documentation block is suppressed so the
// same text is not attached twice.
func AssociateComments(source string, startLine int, includePlain bool, maxGap int) (*DocComment, []Comment) {
	var doc *DocComment
	if raw := NearestComment(source, startLine, DocComments, maxGap); raw != nil {
		doc = ParseDoc(raw)
	}

	var comments []Comment
	if includePlain {
		if c := NearestComment(source, startLine, PlainComments, maxGap); c != nil {
			if doc == nil || c.Raw != doc.Raw {
				comments = append(comments, *c)
			}
		}
	}

	return doc, comments
}
