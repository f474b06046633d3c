package state

import "sync"

type Store struct {
	mu   sync.Mutex
	snap Snapshot

	notifyMu    sync.Mutex
	subscribers []func(Snapshot)
}

func NewStore(initial Snapshot) *Store {
	return &Store{snap: initial}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers fn to receive every new snapshot. fn may read the
// store but must not call Dispatch.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) Dispatch(ev Event) Snapshot {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	next := Apply(s.snap, ev)
	s.snap = next
	s.mu.Unlock()

	for _, fn := range s.subscribers {
		fn(next)
	}
	return next
}
