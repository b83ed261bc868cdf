package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
)

// Repository persists checkout sessions.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new checkout session.
func (r *Repository) Create(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error) {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// FindByID loads a session by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByPaymentIntentID loads the session created for a payment intent.
func (r *Repository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("payment_intent_id = ?", paymentIntentID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateStatus moves the session to the given status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CheckoutSessionStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ExpireBefore marks open sessions created before the cutoff as
// expired and returns how many rows were touched.
func (r *Repository) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("status = ? AND created_at < ?", enums.CheckoutSessionOpen, cutoff).
		Update("status", enums.CheckoutSessionExpired)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
