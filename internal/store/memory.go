package store

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore is a process-local BanStore. Bans vanish on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	bans map[string]*Ban
}

// NewMemory creates an empty in-memory ban registry.
func NewMemory() *MemoryStore {
	return &MemoryStore{bans: make(map[string]*Ban)}
}

func (s *MemoryStore) AddBan(_ context.Context, origin, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ban, ok := s.bans[origin]; ok {
		ban.Reason = reason
		return nil
	}
	s.bans[origin] = &Ban{Origin: origin, Reason: reason, CreatedAt: time.Now()}
	return nil
}

func (s *MemoryStore) IsBanned(_ context.Context, origin string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bans[origin]
	return ok, nil
}

func (s *MemoryStore) ListBans(_ context.Context) ([]*Ban, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bans := make([]*Ban, 0, len(s.bans))
	for _, ban := range s.bans {
		copied := *ban
		bans = append(bans, &copied)
	}
	slices.SortFunc(bans, func(a, b *Ban) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return bans, nil
}

func (s *MemoryStore) Close() error { return nil }
