package fold

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Reason tells why a fold tree was replaced.
type Reason int

const (
	// ReasonReparse means a parser produced a new tree.
	ReasonReparse Reason = iota
	// ReasonCollapse means collapse flags changed.
	ReasonCollapse
	// ReasonDisabled means folding was turned off and the tree cleared.
	ReasonDisabled
	// ReasonParserChanged means the parser was replaced and the tree cleared.
	ReasonParserChanged
)

// String returns the name of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonReparse:
		return "reparse"
	case ReasonCollapse:
		return "collapse"
	case ReasonDisabled:
		return "disabled"
	case ReasonParserChanged:
		return "parser-changed"
	default:
		return "unknown"
	}
}

// Event is published whenever a Manager replaces its tree.
type Event struct {
	ID        uuid.UUID
	Version   uint64
	Reason    Reason
	Folds     int
	Timestamp time.Time
}

func newEvent(t *Tree, reason Reason) Event {
	return Event{
		ID:        uuid.New(),
		Version:   t.Version(),
		Reason:    reason,
		Folds:     t.Len(),
		Timestamp: time.Now(),
	}
}

// subscribers is a set of event handlers.
type subscribers struct {
	mu       sync.Mutex
	next     int
	handlers map[int]func(Event)
}

// add registers fn and returns a function removing it.
func (s *subscribers) add(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handlers == nil {
		s.handlers = make(map[int]func(Event))
	}
	id := s.next
	s.next++
	s.handlers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers, id)
			s.mu.Unlock()
		})
	}
}

// publish calls every handler with ev, in subscription order.
func (s *subscribers) publish(ev Event) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.handlers))
	for id := range s.handlers {
		ids = append(ids, id)
	}
	handlers := make([]func(Event), 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		handlers = append(handlers, s.handlers[id])
	}
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
