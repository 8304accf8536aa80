package core

import "sync"

// ContentChange describes a buffer content mutation.
type ContentChange struct {
	// IsFlush is set when the whole document was replaced (SetContent,
	// undo, redo) rather than edited in place.
	IsFlush bool
}

// CursorChangeReason tells listeners what caused a selection change.
type CursorChangeReason int

const (
	CursorExplicit     CursorChangeReason = iota // Direct user movement
	CursorUndo                                   // Selection restored by undo
	CursorRedo                                   // Selection restored by redo
	CursorProgrammatic                           // Moved by an API caller (e.g. replace)
)

// SelectionChange describes a selection/caret change.
type SelectionChange struct {
	Selection Range
	Reason    CursorChangeReason
}

// observerSet is a minimal subscription registry. Subscribing returns an
// unsubscribe function; both are safe for concurrent use.
type observerSet[T any] struct {
	mu        sync.Mutex
	nextID    uint64
	observers map[uint64]func(T)
}

func (s *observerSet[T]) subscribe(fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.observers == nil {
		s.observers = make(map[uint64]func(T))
	}
	id := s.nextID
	s.nextID++
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *observerSet[T]) notify(event T) {
	s.mu.Lock()
	fns := make([]func(T), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}
