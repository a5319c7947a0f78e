package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plateful/plateful-backend/pkg/config"
	"github.com/plateful/plateful-backend/pkg/logger"
)

type fakeCartSweeper struct {
	expireCutoff time.Time
	purgeCutoff  time.Time
	expireErr    error
	purgeErr     error
}

func (f *fakeCartSweeper) ExpireActiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.expireCutoff = cutoff
	return 2, f.expireErr
}

func (f *fakeCartSweeper) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.purgeCutoff = cutoff
	return 1, f.purgeErr
}

func TestCartExpiryJobUsesConfiguredCutoffs(t *testing.T) {
	sweeper := &fakeCartSweeper{}
	job, err := NewCartExpiryJob(CartExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
		Carts:  sweeper,
		Sweeper: config.SweeperConfig{
			CartTTL:        24 * time.Hour,
			CartPurgeAfter: 30 * 24 * time.Hour,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job.(*cartExpiryJob).now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := sweeper.expireCutoff, fixed.Add(-24*time.Hour); !got.Equal(want) {
		t.Fatalf("expire cutoff = %v, want %v", got, want)
	}
	if got, want := sweeper.purgeCutoff, fixed.Add(-30*24*time.Hour); !got.Equal(want) {
		t.Fatalf("purge cutoff = %v, want %v", got, want)
	}
}

func TestCartExpiryJobCombinesFailures(t *testing.T) {
	sweeper := &fakeCartSweeper{
		expireErr: errors.New("expire boom"),
		purgeErr:  errors.New("purge boom"),
	}
	job, err := NewCartExpiryJob(CartExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
		Carts:  sweeper,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runErr := job.Run(context.Background())
	if runErr == nil {
		t.Fatal("expected combined error")
	}
	if !errors.Is(runErr, sweeper.expireErr) || !errors.Is(runErr, sweeper.purgeErr) {
		t.Fatalf("expected both failures in combined error, got %v", runErr)
	}
}

func TestNewCartExpiryJobRequiresDeps(t *testing.T) {
	if _, err := NewCartExpiryJob(CartExpiryJobParams{Carts: &fakeCartSweeper{}}); err == nil {
		t.Fatal("expected error for missing logger")
	}
	if _, err := NewCartExpiryJob(CartExpiryJobParams{Logger: logger.New(logger.Options{ServiceName: "x"})}); err == nil {
		t.Fatal("expected error for missing sweeper")
	}
}
