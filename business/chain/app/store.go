package app

import (
	"sync"
	"sync/atomic"

	"github.com/fd1az/sam-client/business/chain/domain"
)

// Store holds the current State. Readers never block; writers are
// serialized and publish a whole new State at once.
type Store struct {
	current atomic.Pointer[domain.State]

	mu   sync.Mutex
	subs map[int]chan domain.State
	next int
}

// NewStore creates a store seeded with initial.
func NewStore(initial domain.State) *Store {
	s := &Store{subs: make(map[int]chan domain.State)}
	s.current.Store(&initial)
	return s
}

// Load returns the current state.
func (s *Store) Load() domain.State {
	return s.current.Load().Clone()
}

// Update applies fn to a copy of the current state and publishes the result.
func (s *Store) Update(fn func(domain.State) domain.State) domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.current.Load().Clone())
	s.current.Store(&next)

	for _, ch := range s.subs {
		// Keep only the latest state for slow subscribers.
		select {
		case <-ch:
		default:
		}
		ch <- next.Clone()
	}
	return next
}

// Subscribe returns a channel that receives every published state and a
// function that ends the subscription.
func (s *Store) Subscribe() (<-chan domain.State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan domain.State, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}
