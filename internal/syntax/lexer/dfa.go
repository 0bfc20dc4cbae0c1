package lexer

import (
	"unicode/utf8"

	"github.com/dshills/lexfold/internal/syntax/token"
)

// RuneRange is an inclusive range of runes.
type RuneRange struct {
	Lo, Hi rune
}

// Chars returns one single-rune range per character of s.
func Chars(s string) []RuneRange {
	ranges := make([]RuneRange, 0, len(s))
	for _, r := range s {
		ranges = append(ranges, RuneRange{r, r})
	}
	return ranges
}

// AnyRune matches every rune.
var AnyRune = []RuneRange{{0, utf8.MaxRune}}

// Except returns the complement of the characters in s.
func Except(s string) []RuneRange {
	excluded := make(map[rune]bool, len(s))
	for _, r := range s {
		excluded[r] = true
	}
	var ranges []RuneRange
	lo := rune(0)
	for r := rune(0); r < 0x80; r++ {
		if excluded[r] {
			if r > lo {
				ranges = append(ranges, RuneRange{lo, r - 1})
			}
			lo = r + 1
		}
	}
	return append(ranges, RuneRange{lo, utf8.MaxRune})
}

// transition is one DFA edge.
type transition struct {
	lo, hi rune
	next   int
}

// dfaState is one node of the automaton.
type dfaState struct {
	trans []transition

	// accept is the token type when a lexeme may end here (Null if not).
	accept token.Type

	// carry is the continuation state when the line ends in this state.
	carry     token.State
	carryType token.Type

	// errType is emitted to the end of the line when the scan gets stuck
	// here with nothing accepted, e.g. inside an unterminated string.
	errType token.Type
}

// DFA is a table-driven, resumable finite-automaton tokenizer.
//
// Each lexeme is found by maximal munch from the start state. A line that
// begins in a continuation state starts its first lexeme in the state
// registered for that continuation instead, and a line that ends inside a
// carrying state emits the partial lexeme and returns the carry state.
type DFA struct {
	states   []dfaState
	resume   map[token.State]int
	keywords *KeywordTable
}

// step returns the next state for r, or -1.
func (d *DFA) step(state int, r rune) int {
	for _, t := range d.states[state].trans {
		if r >= t.lo && r <= t.hi {
			return t.next
		}
	}
	return -1
}

// Tokenize implements Tokenizer.
func (d *DFA) Tokenize(line string, offset int, in token.State) ([]token.Token, token.State) {
	e := newEmitter(line, offset)

	first := dfaStart
	if in != token.StateNone {
		if s, ok := d.resume[in]; ok {
			first = s
		}
	}
	if len(line) == 0 {
		if first != dfaStart {
			return nil, in
		}
		return nil, token.StateNone
	}

	pos := 0
	state := first
	for pos < len(line) {
		cur := state
		state = dfaStart

		lastAccept, lastType := -1, token.Null
		j := pos
		for j < len(line) {
			r, size := utf8.DecodeRuneInString(line[j:])
			next := d.step(cur, r)
			if next < 0 {
				break
			}
			cur = next
			j += size
			if acc := d.states[cur].accept; acc != token.Null {
				lastAccept, lastType = j, acc
			}
		}

		if j == len(line) && d.states[cur].carry != token.StateNone {
			e.emit(d.states[cur].carryType, pos, len(line))
			return e.tokens, d.states[cur].carry
		}

		if lastAccept > pos {
			typ := lastType
			if typ == token.Identifier {
				typ = d.keywords.Resolve(line[pos:lastAccept])
			}
			e.emit(typ, pos, lastAccept)
			pos = lastAccept
			continue
		}

		if errType := d.states[cur].errType; errType != token.Null {
			e.emit(errType, pos, len(line))
			return e.tokens, token.StateNone
		}

		end := resync(line, pos)
		e.emit(token.ErrorIdentifier, pos, end)
		pos = end
	}

	return e.tokens, token.StateNone
}

// dfaStart is the index of the start state.
const dfaStart = 0

// DFABuilder assembles a DFA.
type DFABuilder struct {
	states []dfaState
	resume map[token.State]int
}

// NewDFABuilder creates a builder whose state 0 is the start state.
func NewDFABuilder() *DFABuilder {
	return &DFABuilder{
		states: []dfaState{{}},
		resume: make(map[token.State]int),
	}
}

// Start returns the start state.
func (b *DFABuilder) Start() int {
	return dfaStart
}

// State adds a state accepting the given type (token.Null for none).
func (b *DFABuilder) State(accept token.Type) int {
	b.states = append(b.states, dfaState{accept: accept})
	return len(b.states) - 1
}

// On adds transitions from one state to another for every range. Earlier
// transitions take precedence over later ones.
func (b *DFABuilder) On(from int, ranges []RuneRange, to int) *DFABuilder {
	for _, r := range ranges {
		b.states[from].trans = append(b.states[from].trans, transition{lo: r.Lo, hi: r.Hi, next: to})
	}
	return b
}

// OnChars adds transitions for each character of chars.
func (b *DFABuilder) OnChars(from int, chars string, to int) *DFABuilder {
	return b.On(from, Chars(chars), to)
}

// Carry marks states as continuing a multi-line construct.
func (b *DFABuilder) Carry(carry token.State, typ token.Type, states ...int) *DFABuilder {
	for _, s := range states {
		b.states[s].carry = carry
		b.states[s].carryType = typ
	}
	return b
}

// Error sets the type emitted when scanning gets stuck in the states.
func (b *DFABuilder) Error(typ token.Type, states ...int) *DFABuilder {
	for _, s := range states {
		b.states[s].errType = typ
	}
	return b
}

// Resume registers the state a line starts in for a continuation state.
func (b *DFABuilder) Resume(in token.State, state int) *DFABuilder {
	b.resume[in] = state
	return b
}

// Build returns the automaton.
func (b *DFABuilder) Build(keywords *KeywordTable) *DFA {
	states := make([]dfaState, len(b.states))
	copy(states, b.states)
	resume := make(map[token.State]int, len(b.resume))
	for k, v := range b.resume {
		resume[k] = v
	}
	return &DFA{
		states:   states,
		resume:   resume,
		keywords: keywords,
	}
}

// States returns the number of states.
func (d *DFA) States() int {
	return len(d.states)
}
