package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plateful/plateful-backend/pkg/config"
	"github.com/plateful/plateful-backend/pkg/logger"
)

type fakePaymentSweeper struct {
	cutoff time.Time
	err    error
}

func (f *fakePaymentSweeper) ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func TestPaymentExpiryJobUsesConfiguredTTL(t *testing.T) {
	sweeper := &fakePaymentSweeper{}
	job, err := NewPaymentExpiryJob(PaymentExpiryJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Payments: sweeper,
		Sweeper:  config.SweeperConfig{PaymentTTL: 48 * time.Hour},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job.(*paymentExpiryJob).now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := sweeper.cutoff, fixed.Add(-48*time.Hour); !got.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", got, want)
	}
}

func TestPaymentExpiryJobPropagatesFailure(t *testing.T) {
	sweeper := &fakePaymentSweeper{err: errors.New("boom")}
	job, err := NewPaymentExpiryJob(PaymentExpiryJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Payments: sweeper,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runErr := job.Run(context.Background()); !errors.Is(runErr, sweeper.err) {
		t.Fatalf("expected sweep failure, got %v", runErr)
	}
}
