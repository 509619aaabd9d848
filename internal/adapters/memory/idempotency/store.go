package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/clock"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/idempotency"
)

// Store is an in-memory implementation of idempotency.Store.
// Records older than the TTL are treated as absent and pruned on the next Put.
// It is safe for concurrent use.
type Store struct {
	clk clock.Clock
	ttl time.Duration

	mu sync.RWMutex
	m  map[idempotency.Fingerprint]idempotency.Record
}

// NewStore returns a store. ttl <= 0 keeps records forever.
func NewStore(clk clock.Clock, ttl time.Duration) *Store {
	return &Store{
		clk: clk,
		ttl: ttl,
		m:   make(map[idempotency.Fingerprint]idempotency.Record),
	}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.m[fp]
	if !ok || s.expired(rec, s.clk.Now()) {
		return idempotency.Record{}, false, nil
	}
	return cloneRecord(rec), true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	for k, v := range s.m {
		if s.expired(v, now) {
			delete(s.m, k)
		}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	s.m[fp] = cloneRecord(rec)
	return nil
}

func (s *Store) expired(rec idempotency.Record, now time.Time) bool {
	return s.ttl > 0 && now.Sub(rec.CreatedAt) > s.ttl
}

func cloneRecord(r idempotency.Record) idempotency.Record {
	out := r
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return out
}
