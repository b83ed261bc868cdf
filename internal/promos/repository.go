package promos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/pagination"
)

// Repository owns promo code persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindActiveByCode loads an active promo by its canonical code.
func (r *Repository) FindActiveByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.db.WithContext(ctx).
		First(&promo, "code = ? AND active = TRUE", code).
		Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// FindByID loads a promo regardless of active state.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := r.db.WithContext(ctx).First(&promo, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

// Create inserts a new promo row.
func (r *Repository) Create(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	if err := r.db.WithContext(ctx).Create(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

// Update saves a promo row.
func (r *Repository) Update(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	if err := r.db.WithContext(ctx).Save(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

// Delete removes a promo by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PromoCode{}).Error
}

// List returns promos newest first with cursor pagination.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.PromoCode, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var promos []models.PromoCode
	if err := query.Find(&promos).Error; err != nil {
		return nil, err
	}
	return promos, nil
}

// DeactivateExpired flips Active off for every code whose expiry has
// passed, returning the number of rows touched.
func (r *Repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("active = TRUE AND expires_at IS NOT NULL AND expires_at <= ?", now).
		Update("active", false)
	return result.RowsAffected, result.Error
}
