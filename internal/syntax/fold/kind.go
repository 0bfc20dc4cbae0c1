package fold

import "strconv"

// Kind classifies a fold.
type Kind int

// Built-in fold kinds. Languages may define their own kinds starting at
// KindCustom.
const (
	KindCode Kind = iota
	KindComment
	KindImports

	KindCustom Kind = 1000
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindComment:
		return "comment"
	case KindImports:
		return "imports"
	}
	if k >= KindCustom {
		return "custom-" + strconv.Itoa(int(k-KindCustom))
	}
	return "unknown"
}

// ParseKind parses the name produced by String.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "code":
		return KindCode, true
	case "comment":
		return KindComment, true
	case "imports":
		return KindImports, true
	}
	if n, ok := cutPrefixInt(s, "custom-"); ok {
		return KindCustom + Kind(n), true
	}
	return 0, false
}

func cutPrefixInt(s, prefix string) (int, bool) {
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return 0, false
	}
	n, err := strconv.Atoi(s[len(prefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
