package store

import (
	"context"
	"sync"
	"time"

	"github.com/cwu2020/reflist-sub001/internal/claim/domain"
	"github.com/cwu2020/reflist-sub001/internal/clock"
)

// MemoryStore is the fallback verification store used when redis is not
// configured. Expired entries linger until Purge runs; the scheduler sweeps
// them on an interval.
type MemoryStore struct {
	clock clock.Clock

	mu      sync.Mutex
	entries map[string]*domain.Verification
}

func NewMemoryStore(clk clock.Clock) *MemoryStore {
	return &MemoryStore{
		clock:   clk,
		entries: make(map[string]*domain.Verification),
	}
}

func (s *MemoryStore) Put(_ context.Context, verification *domain.Verification, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *verification
	s.entries[verification.Token] = &copied
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (*domain.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	verification, ok := s.entries[token]
	if !ok {
		return nil, domain.ErrVerificationNotFound
	}
	if verification.Expired(s.clock.Now()) {
		delete(s.entries, token)
		return nil, domain.ErrVerificationExpired
	}
	copied := *verification
	return &copied, nil
}

// Purge drops every expired entry and reports how many were removed.
func (s *MemoryStore) Purge() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for token, verification := range s.entries {
		if verification.Expired(now) {
			delete(s.entries, token)
			purged++
		}
	}
	return purged
}

// Len reports the live entry count, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
