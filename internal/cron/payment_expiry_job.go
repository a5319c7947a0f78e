package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/plateful/plateful-backend/pkg/config"
	"github.com/plateful/plateful-backend/pkg/logger"
)

type paymentSweeper interface {
	ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PaymentExpiryJobParams configure the pending payment sweeper.
type PaymentExpiryJobParams struct {
	Logger   *logger.Logger
	Payments paymentSweeper
	Sweeper  config.SweeperConfig
}

// NewPaymentExpiryJob builds the job that expires payments left pending.
func NewPaymentExpiryJob(params PaymentExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment sweeper required")
	}
	ttl := params.Sweeper.PaymentTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &paymentExpiryJob{
		logg:     params.Logger,
		payments: params.Payments,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

type paymentExpiryJob struct {
	logg     *logger.Logger
	payments paymentSweeper
	ttl      time.Duration
	now      func() time.Time
}

func (j *paymentExpiryJob) Name() string { return "payment-expiry" }

func (j *paymentExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	count, err := j.payments.ExpirePendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("expire pending payments: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "pending payment expiry complete")
	return nil
}
