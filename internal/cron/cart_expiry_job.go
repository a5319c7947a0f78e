package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/plateful/plateful-backend/pkg/config"
	"github.com/plateful/plateful-backend/pkg/logger"
)

type cartSweeper interface {
	ExpireActiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CartExpiryJobParams configure the cart sweeper.
type CartExpiryJobParams struct {
	Logger  *logger.Logger
	Carts   cartSweeper
	Sweeper config.SweeperConfig
}

// NewCartExpiryJob builds the job that retires idle carts and purges long-dead
// ones.
func NewCartExpiryJob(params CartExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart sweeper required")
	}
	ttl := params.Sweeper.CartTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	purgeAfter := params.Sweeper.CartPurgeAfter
	if purgeAfter <= 0 {
		purgeAfter = 30 * 24 * time.Hour
	}
	return &cartExpiryJob{
		logg:       params.Logger,
		carts:      params.Carts,
		ttl:        ttl,
		purgeAfter: purgeAfter,
		now:        time.Now,
	}, nil
}

type cartExpiryJob struct {
	logg       *logger.Logger
	carts      cartSweeper
	ttl        time.Duration
	purgeAfter time.Duration
	now        func() time.Time
}

func (j *cartExpiryJob) Name() string { return "cart-expiry" }

func (j *cartExpiryJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.expireIdle(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.purgeStale(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *cartExpiryJob) expireIdle(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	count, err := j.carts.ExpireActiveBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("expire idle carts: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "idle cart expiry complete")
	return nil
}

func (j *cartExpiryJob) purgeStale(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.purgeAfter)
	count, err := j.carts.PurgeExpiredBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge expired carts: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "expired cart purge complete")
	return nil
}
