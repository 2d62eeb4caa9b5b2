package library

import (
	"sync"
	"time"
)

// Change describes one completed dispatch. Before and After share backing
// arrays with the store and must be treated as read-only.
type Change struct {
	Action Action
	Before State
	After  State
}

// Listener is notified after every dispatch that went through the reducer.
type Listener func(Change)

// Store owns one library state and serialises every mutation through Apply.
type Store struct {
	mu    sync.Mutex
	state State
	now   func() time.Time

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithClock sets the clock used to stamp actions that carry a timestamp.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(initial State, opts ...StoreOption) *Store {
	s := &Store{
		state:     initial.Clone(),
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch applies action and returns a copy of the resulting state.
// Listeners run on the calling goroutine after the store lock is released.
func (s *Store) Dispatch(action Action) State {
	return s.DispatchChange(action).After
}

// DispatchChange is Dispatch returning copies of both sides of the
// transition, for callers deriving facts from it (see EarnedBetween).
func (s *Store) DispatchChange(action Action) Change {
	if p, ok := action.(preparer); ok {
		action = p.prepare(s.now())
	}

	s.mu.Lock()
	before := s.state
	after := Apply(before, action)
	s.state = after
	s.mu.Unlock()

	change := Change{Action: action, Before: before, After: after}
	s.notify(change)
	return Change{Action: action, Before: before.Clone(), After: after.Clone()}
}

// Subscribe registers fn and returns the function that removes it.
// DispatchIf applies action only when check accepts the current state. The
// check and the update happen under the same lock, so concurrent callers
// cannot both pass a check the first update invalidates. When check fails
// the state is returned unchanged with its error and listeners are not
// called.
func (s *Store) DispatchIf(action Action, check func(State) error) (State, error) {
	if p, ok := action.(preparer); ok {
		action = p.prepare(s.now())
	}

	s.mu.Lock()
	before := s.state
	if err := check(before); err != nil {
		s.mu.Unlock()
		return before.Clone(), err
	}
	after := Apply(before, action)
	s.state = after
	s.mu.Unlock()

	s.notify(Change{Action: action, Before: before, After: after})
	return after.Clone(), nil
}

func (s *Store) Subscribe(fn Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(change Change) {
	s.listenersMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(change)
	}
}
