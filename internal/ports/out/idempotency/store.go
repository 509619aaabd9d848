package idempotency

import (
	"context"
	"time"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

// Key is the caller-provided idempotency key (Idempotency-Key header).
type Key string

// Fingerprint identifies a request uniquely for idempotency purposes.
//
// Strategy: key + route + operator + request body hash.
// Route is represented as HTTP method + route template (e.g. "POST /wizard/submit").
type Fingerprint struct {
	Key      Key
	Operator domain.OperatorID
	Method   string
	Route    string
	BodyHash string
}

// Record is the stored response we can replay for a duplicate request.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Store persists idempotency records so a retried wizard submission does not
// create a second user.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
