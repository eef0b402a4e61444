package session

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/shopdash/internal/logging"
)

// Listener receives every committed session, in commit order. Listeners run
// synchronously inside Dispatch and must not call Dispatch themselves.
type Listener func(Session)

// Store is the single owner of the session. It is safe for concurrent use;
// dispatches are serialized so reductions never interleave.
type Store struct {
	dispatchMu sync.Mutex

	mu    sync.RWMutex
	state Session

	lmu       sync.Mutex
	listeners map[uint64]Listener
	nextID    uint64

	ops atomic.Uint64

	logger logging.Logger
}

type Option func(*Store)

func WithLogger(l logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithInitial overrides the starting session; tests use it to begin from a
// known state.
func WithInitial(initial Session) Option {
	return func(s *Store) {
		s.state = initial.clone()
	}
}

// NewStore creates a store holding Initial().
func NewStore(opts ...Option) *Store {
	s := &Store{
		state:     Initial(),
		listeners: make(map[uint64]Listener),
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetState returns a copy of the committed session.
func (s *Store) GetState() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Token returns the current bearer token without copying the user.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// NextOp reserves the id of a new identity operation.
func (s *Store) NextOp() Op {
	return Op(s.ops.Add(1))
}

// Subscribe registers l and returns a function removing it. The function
// may be called more than once.
func (s *Store) Subscribe(l Listener) func() {
	s.lmu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = l
	s.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			delete(s.listeners, id)
			s.lmu.Unlock()
		})
	}
}

// Dispatch reduces t against the committed session, commits the result and
// notifies listeners before returning it.
func (s *Store) Dispatch(t Transition) Session {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, t)
	s.state = next
	s.mu.Unlock()

	s.logger.Debug(context.Background(), "session transition",
		"transition", Name(t),
		"from", prev.Status.String(),
		"to", next.Status.String(),
		"loading", next.Loading,
	)

	for _, l := range s.snapshotListeners() {
		l(next.clone())
	}
	return next.clone()
}

func (s *Store) snapshotListeners() []Listener {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.listeners[id])
	}
	return out
}
