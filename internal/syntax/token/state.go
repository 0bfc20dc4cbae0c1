package token

// State is the lexer continuation carried from the end of one line into the
// start of the next. StateNone means the next line starts clean.
type State uint8

// Continuation states for multi-line constructs.
const (
	StateNone State = iota
	StateBlockComment
	StateDocComment
	StateRawString
	StateTripleDouble
	StateTripleSingle
	StateMarkupComment
	StateMarkupTag
	StateMarkupAttrDouble
	StateMarkupAttrSingle
	StateMarkupCDATA

	stateCount
)

// String returns the name of the state.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// IsComment returns true if the state continues a comment.
func (s State) IsComment() bool {
	return s == StateBlockComment || s == StateDocComment || s == StateMarkupComment
}

// Valid returns true if s is one of the defined states.
func (s State) Valid() bool {
	return s < stateCount
}

var stateNames = [...]string{
	StateNone:             "none",
	StateBlockComment:     "block-comment",
	StateDocComment:       "doc-comment",
	StateRawString:        "raw-string",
	StateTripleDouble:     "triple-double",
	StateTripleSingle:     "triple-single",
	StateMarkupComment:    "markup-comment",
	StateMarkupTag:        "markup-tag",
	StateMarkupAttrDouble: "markup-attr-double",
	StateMarkupAttrSingle: "markup-attr-single",
	StateMarkupCDATA:      "markup-cdata",
}
