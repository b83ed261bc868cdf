package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/verdeleaf/storefront-backend/pkg/logger"
)

type sessionExpirer interface {
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// sessionExpiryJob closes open checkout sessions whose payment never
// arrived, so stale quotes do not linger as pending charges.
type sessionExpiryJob struct {
	logg     *logger.Logger
	checkout sessionExpirer
}

// NewSessionExpiryJob builds the checkout-session expiry job.
func NewSessionExpiryJob(logg *logger.Logger, checkout sessionExpirer) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if checkout == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	return &sessionExpiryJob{logg: logg, checkout: checkout}, nil
}

func (j *sessionExpiryJob) Name() string { return "checkout-session-expiry" }

func (j *sessionExpiryJob) Run(ctx context.Context) error {
	expired, err := j.checkout.ExpireStale(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("expire checkout sessions: %w", err)
	}
	if expired > 0 {
		j.logg.Info(ctx, fmt.Sprintf("expired %d stale checkout sessions", expired))
	}
	return nil
}
