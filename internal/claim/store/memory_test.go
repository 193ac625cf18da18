package store

import (
	"context"
	"testing"
	"time"

	"github.com/cwu2020/reflist-sub001/internal/claim/domain"
	"github.com/cwu2020/reflist-sub001/internal/clock"
)

func putVerification(t *testing.T, s *MemoryStore, token string, expiresAt time.Time) {
	t.Helper()
	err := s.Put(context.Background(), &domain.Verification{
		Token:       token,
		PhoneNumber: "+15551230001",
		ExpiresAt:   expiresAt,
	}, time.Hour)
	if err != nil {
		t.Fatalf("put %s: %v", token, err)
	}
}

func TestMemoryStoreGetExpiresLazily(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s := NewMemoryStore(clk)
	putVerification(t, s, "tok-1", clk.Now().Add(time.Hour))

	got, err := s.Get(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("get live: %v", err)
	}
	if got.Token != "tok-1" {
		t.Fatalf("wrong entry: %s", got.Token)
	}

	clk.Advance(2 * time.Hour)
	if _, err := s.Get(context.Background(), "tok-1"); err != domain.ErrVerificationExpired {
		t.Fatalf("expected expired, got %v", err)
	}
	// The expired entry is dropped on read.
	if s.Len() != 0 {
		t.Fatalf("expected empty store, len=%d", s.Len())
	}

	if _, err := s.Get(context.Background(), "tok-1"); err != domain.ErrVerificationNotFound {
		t.Fatalf("expected not found after drop, got %v", err)
	}
}

func TestMemoryStorePurge(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s := NewMemoryStore(clk)
	putVerification(t, s, "tok-old", clk.Now().Add(time.Minute))
	putVerification(t, s, "tok-new", clk.Now().Add(time.Hour))

	if purged := s.Purge(); purged != 0 {
		t.Fatalf("nothing expired yet, purged %d", purged)
	}

	clk.Advance(30 * time.Minute)
	if purged := s.Purge(); purged != 1 {
		t.Fatalf("expected 1 purged, got %d", purged)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 live entry, len=%d", s.Len())
	}

	if _, err := s.Get(context.Background(), "tok-new"); err != nil {
		t.Fatalf("live entry must survive purge: %v", err)
	}
}
