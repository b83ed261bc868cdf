package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/verdeleaf/storefront-backend/pkg/logger"
)

type promoDeactivator interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// promoExpiryJob flips Active off on promo codes whose expiry passed.
// Validation already rejects expired codes at use time; the job keeps
// the admin listing honest.
type promoExpiryJob struct {
	logg   *logger.Logger
	promos promoDeactivator
}

// NewPromoExpiryJob builds the expired-promo deactivation job.
func NewPromoExpiryJob(logg *logger.Logger, promos promoDeactivator) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if promos == nil {
		return nil, fmt.Errorf("promo repository required")
	}
	return &promoExpiryJob{logg: logg, promos: promos}, nil
}

func (j *promoExpiryJob) Name() string { return "promo-expiry" }

func (j *promoExpiryJob) Run(ctx context.Context) error {
	deactivated, err := j.promos.DeactivateExpired(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("deactivate expired promos: %w", err)
	}
	if deactivated > 0 {
		j.logg.Info(ctx, fmt.Sprintf("deactivated %d expired promo codes", deactivated))
	}
	return nil
}
