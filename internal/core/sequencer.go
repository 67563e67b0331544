package core

import "sync"

// sequencer hands out tickets and admits their holders one at a time, in
// ticket order. Every ticket taken must be waited on and marked done.
type sequencer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	serving uint64
}

func (s *sequencer) take() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.next
	s.next++
	return t
}

// wait blocks until every earlier ticket is done.
func (s *sequencer) wait(ticket uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.serving != ticket {
		s.condLocked().Wait()
	}
}

func (s *sequencer) done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serving++
	s.condLocked().Broadcast()
}

func (s *sequencer) condLocked() *sync.Cond {
	if s.cond == nil {
		s.cond = sync.NewCond(&s.mu)
	}
	return s.cond
}
