package fold

import (
	"errors"
	"fmt"
)

// Errors returned by fold operations.
var (
	// ErrTooDeep indicates nesting exceeded the parser's depth bound.
	ErrTooDeep = errors.New("fold nesting too deep")

	// ErrParseFailed indicates a parser failed and the previous tree was kept.
	ErrParseFailed = errors.New("fold parse failed")

	// ErrNoFold indicates the fold ID does not exist in the current tree.
	ErrNoFold = errors.New("fold not found")

	// ErrFoldingDisabled indicates folding is turned off or unavailable.
	ErrFoldingDisabled = errors.New("folding disabled")
)

// ParseError describes a parser failure for one document.
type ParseError struct {
	// Language names the parser's language, if known.
	Language string
	// Panicked is set when the parser panicked instead of returning an error.
	Panicked bool
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	what := "failed"
	if e.Panicked {
		what = "panicked"
	}
	if e.Language != "" {
		return fmt.Sprintf("fold parser for %s %s: %v", e.Language, what, e.Err)
	}
	return fmt.Sprintf("fold parser %s: %v", what, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports ParseError as an ErrParseFailed.
func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailed
}
