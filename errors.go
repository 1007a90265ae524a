package pegc

import (
	"fmt"
	"sort"
	"strings"
)

// SyntaxError is reported when input does not match a grammar: either the
// grammar text itself does not match the PEG meta-grammar, or — for errors
// produced by a compiled parser — the parsed input does not match the
// compiled grammar. Both carry the same shape.
type SyntaxError struct {
	Message string
	Line    int
	Column  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s (line %d, column %d)", e.Message, e.Line, e.Column)
}

// GrammarError is reported when a syntactically valid grammar fails semantic
// analysis: a reference to an undefined rule, or left recursion.
type GrammarError struct {
	Message string
}

func (e *GrammarError) Error() string {
	return e.Message
}

func newGrammarErrorf(format string, args ...any) *GrammarError {
	return &GrammarError{Message: fmt.Sprintf(format, args...)}
}

// buildExpectedDescription renders an expectation set for an error message:
// sorted, comma-joined with a final "or", "end of input" when empty.
func buildExpectedDescription(expected []string) string {
	sorted := append([]string(nil), expected...)
	sort.Strings(sorted)

	switch len(sorted) {
	case 0:
		return "end of input"
	case 1:
		return sorted[0]
	default:
		return strings.Join(sorted[:len(sorted)-1], ", ") + " or " + sorted[len(sorted)-1]
	}
}

// buildErrorMessage renders the "Expected ... but ... found." message for a
// failure whose expectation set was collected at rightmostFailPos. The
// "found" token is the character at max(pos, rightmostFailPos).
func buildErrorMessage(input []rune, pos int, rightmostFailPos int, expected []string) string {
	offset := rightmostFailPos
	if pos > offset {
		offset = pos
	}

	actual := "end of input"
	if offset < len(input) {
		actual = quoteForError(string(input[offset]))
	}

	return "Expected " + buildExpectedDescription(expected) + " but " + actual + " found."
}

// computeErrorPosition walks input up to offset and reports the 1-based line
// and column. "\r\n" counts as a single line break, as do the Unicode line
// terminators U+2028 and U+2029.
func computeErrorPosition(input []rune, offset int) (line int, column int) {
	line, column = 1, 1
	seenCR := false

	if offset > len(input) {
		offset = len(input)
	}
	for i := 0; i < offset; i++ {
		switch input[i] {
		case '\n':
			if !seenCR {
				line++
			}
			column = 1
			seenCR = false
		case '\r', '\u2028', '\u2029':
			line++
			column = 1
			seenCR = true
		default:
			column++
			seenCR = false
		}
	}

	return line, column
}
