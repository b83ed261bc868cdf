package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
	"github.com/verdeleaf/storefront-backend/pkg/pagination"
)

// Repository persists orders and their line items.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
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

// Upsert inserts the order unless one already exists for the same
// gateway transaction id, then returns the durable row either way.
// This is the idempotency barrier for duplicate webhook deliveries.
// The row and its line items commit together; a failed item insert
// rolls the order back so a retry can insert both.
func (r *Repository) Upsert(ctx context.Context, order *models.Order) (*models.Order, error) {
	items := order.Items
	order.Items = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bound := r.WithTx(tx)
		result := bound.db.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "gateway_transaction_id"}},
				DoNothing: true,
			}).
			Create(order)
		if result.Error != nil {
			return result.Error
		}
		// Line items only belong to the row we actually inserted; on a
		// duplicate delivery the existing order already carries them.
		if result.RowsAffected > 0 && len(items) > 0 {
			if err := bound.db.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindByGatewayTransactionID(ctx, order.GatewayTransactionID)
}

// FindByID loads an order with its line items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByGatewayTransactionID loads an order by its idempotency key.
func (r *Repository) FindByGatewayTransactionID(ctx context.Context, transactionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("gateway_transaction_id = ?", transactionID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListFilter narrows admin order listings.
type ListFilter struct {
	Status *enums.OrderStatus
}

// List returns orders newest first with cursor pagination.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus persists a status change.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}
