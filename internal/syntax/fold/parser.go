package fold

// Parser builds a fold tree from a tokenized document. Implementations
// must return a new Tree on every call and must tolerate unbalanced input.
type Parser interface {
	Parse(src Source) (*Tree, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(src Source) (*Tree, error)

// Parse calls f.
func (f ParserFunc) Parse(src Source) (*Tree, error) {
	return f(src)
}

// commentKey marks comment folds on the builder stack. No delimiter, tag
// name or block keyword can equal it.
const commentKey = "\x00comment"

// commentEdge classifies a multi-line comment token at index j of line:
// opens is set when the comment starts here and continues onto the next
// line, closes when a comment carried in from the previous line ends here.
func commentEdge(j int, n int, inComment, outComment bool) (opens, closes bool) {
	continues := j == 0 && inComment
	carries := j == n-1 && outComment
	return carries && !continues, continues && !carries
}
