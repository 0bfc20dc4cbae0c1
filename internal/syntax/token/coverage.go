package token

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCoverage indicates a token sequence does not exactly cover its line.
var ErrCoverage = errors.New("tokens do not cover line")

// Join concatenates the text of the tokens.
func Join(tokens []Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.Text)
	}
	return sb.String()
}

// Validate checks that tokens cover line exactly, starting at offset, with
// no gaps, overlaps or empty tokens, and that each token's Text matches the
// line bytes it spans.
func Validate(line string, offset int, tokens []Token) error {
	pos := offset
	for i, tok := range tokens {
		if tok.Start != pos {
			return fmt.Errorf("%w: token %d starts at %d, want %d", ErrCoverage, i, tok.Start, pos)
		}
		if tok.End <= tok.Start {
			return fmt.Errorf("%w: token %d is empty", ErrCoverage, i)
		}
		if tok.End-offset > len(line) {
			return fmt.Errorf("%w: token %d ends at %d past line end %d", ErrCoverage, i, tok.End, offset+len(line))
		}
		if tok.Text != line[tok.Start-offset:tok.End-offset] {
			return fmt.Errorf("%w: token %d text %q mismatch", ErrCoverage, i, tok.Text)
		}
		if tok.Type == Null {
			return fmt.Errorf("%w: token %d has null type", ErrCoverage, i)
		}
		pos = tok.End
	}
	if pos != offset+len(line) {
		return fmt.Errorf("%w: covered up to %d, line ends at %d", ErrCoverage, pos, offset+len(line))
	}
	return nil
}
