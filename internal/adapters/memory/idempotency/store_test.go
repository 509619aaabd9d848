package idempotency

import (
	"context"
	"testing"
	"time"

	memclock "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/clock"
	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/idempotency"
)

func TestStore_PutThenGet(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(100, 0))
	s := NewStore(clk, time.Hour)
	fp := idempotency.Fingerprint{
		Key:      "k1",
		Operator: domain.OperatorID("op-1"),
		Method:   "POST",
		Route:    "/wizard/submit",
		BodyHash: "abc123",
	}
	rec := idempotency.Record{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"ok":true}`),
		CreatedAt:   clk.Now(),
	}

	if err := s.Put(context.Background(), fp, rec); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	got, ok, err := s.Get(context.Background(), fp)
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	if !ok {
		t.Fatalf("Get() ok=false, want true")
	}
	if got.StatusCode != rec.StatusCode || got.ContentType != rec.ContentType || string(got.Body) != string(rec.Body) {
		t.Fatalf("Get()=%+v, want %+v", got, rec)
	}

	// Returned bodies are copies.
	got.Body[0] = 'X'
	again, _, _ := s.Get(context.Background(), fp)
	if string(again.Body) != `{"ok":true}` {
		t.Fatalf("stored body mutated: %q", again.Body)
	}
}

func TestStore_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(100, 0))
	s := NewStore(clk, time.Hour)
	fp := idempotency.Fingerprint{Key: "k1", Operator: "op-1", Method: "POST", Route: "/wizard/submit"}

	if err := s.Put(context.Background(), fp, idempotency.Record{StatusCode: 201}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	clk.Advance(59 * time.Minute)
	if _, ok, _ := s.Get(context.Background(), fp); !ok {
		t.Fatalf("record expired early")
	}
	clk.Advance(2 * time.Minute)
	if _, ok, _ := s.Get(context.Background(), fp); ok {
		t.Fatalf("record should have expired")
	}

	// The next Put prunes it.
	other := fp
	other.Key = "k2"
	if err := s.Put(context.Background(), other, idempotency.Record{StatusCode: 201}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	s.mu.RLock()
	n := len(s.m)
	s.mu.RUnlock()
	if n != 1 {
		t.Fatalf("len(store)=%d, want 1", n)
	}
}
