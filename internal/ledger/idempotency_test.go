package ledger

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	keys   map[string]string
	setErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: map[string]string{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	return f.keys[key], nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, ok := f.keys[key]; ok {
		return false, nil
	}
	f.keys[key] = "1"
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "pl:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func TestIdempotencyGuardMarksOnce(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, "bankwebhook")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "txn-1")
	if err != nil || seen {
		t.Fatalf("first mark: seen=%v err=%v, want fresh", seen, err)
	}
	seen, err = guard.CheckAndMark(ctx, "txn-1")
	if err != nil || !seen {
		t.Fatalf("second mark: seen=%v err=%v, want duplicate", seen, err)
	}

	// A different id is independent.
	seen, err = guard.CheckAndMark(ctx, "txn-2")
	if err != nil || seen {
		t.Fatalf("other id: seen=%v err=%v, want fresh", seen, err)
	}
}

func TestIdempotencyGuardDeleteReleasesMark(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, "bankwebhook")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if _, err := guard.CheckAndMark(ctx, "txn-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := guard.Delete(ctx, "txn-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen, err := guard.CheckAndMark(ctx, "txn-1")
	if err != nil || seen {
		t.Fatalf("after delete: seen=%v err=%v, want fresh again", seen, err)
	}
}

func TestIdempotencyGuardStoreFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.setErr = errors.New("connection refused")
	guard, err := NewIdempotencyGuard(store, time.Hour, "bankwebhook")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := guard.CheckAndMark(context.Background(), "txn-1"); err == nil {
		t.Fatal("expected the store failure to surface")
	}
}

func TestNewIdempotencyGuardValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewIdempotencyGuard(nil, time.Hour, "bankwebhook"); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewIdempotencyGuard(newFakeStore(), -time.Second, "bankwebhook"); err == nil {
		t.Fatal("expected error for negative ttl")
	}
	if _, err := NewIdempotencyGuard(newFakeStore(), time.Hour, ""); err == nil {
		t.Fatal("expected error for empty scope")
	}
}
