package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/clock"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/idempotency"
)

// Store keeps submit replays in the idempotency_keys table. Rows older than
// the TTL are invisible to Get and removed by Purge.
type Store struct {
	pool *pgxpool.Pool
	clk  clock.Clock
	ttl  time.Duration
}

// NewStore returns a Store. A zero ttl keeps rows forever.
func NewStore(pool *pgxpool.Pool, clk clock.Clock, ttl time.Duration) *Store {
	return &Store{pool: pool, clk: clk, ttl: ttl}
}

var errNilPool = errors.New("idempotency: nil postgres pool")

const fingerprintMatch = `
	idempotency_key = $1 AND operator = $2 AND method = $3 AND route = $4 AND body_hash = $5`

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	if s.pool == nil {
		return idempotency.Record{}, false, errNilPool
	}
	var rec idempotency.Record
	err := s.pool.QueryRow(ctx,
		`SELECT status_code, content_type, body, created_at FROM idempotency_keys WHERE`+fingerprintMatch,
		string(fp.Key), string(fp.Operator), fp.Method, fp.Route, fp.BodyHash,
	).Scan(&rec.StatusCode, &rec.ContentType, &rec.Body, &rec.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return idempotency.Record{}, false, nil
	case err != nil:
		return idempotency.Record{}, false, fmt.Errorf("get idempotency record: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if s.ttl > 0 && !s.clk.Now().Before(rec.CreatedAt.Add(s.ttl)) {
		return idempotency.Record{}, false, nil
	}
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	if s.pool == nil {
		return errNilPool
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clk.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO idempotency_keys
			(idempotency_key, operator, method, route, body_hash, status_code, content_type, body, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (idempotency_key, operator, method, route, body_hash)
		DO UPDATE SET
			status_code = EXCLUDED.status_code,
			content_type = EXCLUDED.content_type,
			body = EXCLUDED.body,
			created_at = EXCLUDED.created_at
	`,
		string(fp.Key), string(fp.Operator), fp.Method, fp.Route, fp.BodyHash,
		rec.StatusCode, rec.ContentType, rec.Body, createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("put idempotency record: %w", err)
	}
	return nil
}

// Purge deletes expired rows and reports how many were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	if s.pool == nil {
		return 0, errNilPool
	}
	if s.ttl <= 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at <= $1`, s.clk.Now().Add(-s.ttl).UTC())
	if err != nil {
		return 0, fmt.Errorf("purge idempotency records: %w", err)
	}
	return tag.RowsAffected(), nil
}
