package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/plateful/plateful-backend/pkg/redis"
)

// IdempotencyGuard short-circuits duplicate gateway notifications before they
// reach the database. The unique index on gateway_txn_id remains the source
// of truth; the guard only saves a round trip for hot retries.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &IdempotencyGuard{
		store: store,
		ttl:   ttl,
		scope: scope,
	}, nil
}

// CheckAndMark reports whether the transaction id was already seen and marks
// it as seen either way.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, txnID string) (bool, error) {
	if txnID == "" {
		return false, errors.New("transaction id is required")
	}
	key := g.store.IdempotencyKey(g.scope, txnID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete releases the mark so the gateway can retry after a failed ingest.
func (g *IdempotencyGuard) Delete(ctx context.Context, txnID string) error {
	if txnID == "" {
		return errors.New("transaction id is required")
	}
	key := g.store.IdempotencyKey(g.scope, txnID)
	return g.store.Del(ctx, key)
}
