package media

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
	"github.com/verdeleaf/storefront-backend/pkg/pagination"
)

// Repository persists media metadata rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists a media record.
func (r *Repository) Create(ctx context.Context, media *models.Media) (*models.Media, error) {
	if err := r.db.WithContext(ctx).Create(media).Error; err != nil {
		return nil, err
	}
	return media, nil
}

// FindByID retrieves a media record by ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	var m models.Media
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkReady transitions a pending row to ready and records its public URL.
// Returns the number of rows updated so callers can detect a non-pending row.
func (r *Repository) MarkReady(ctx context.Context, id uuid.UUID, publicURL string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Media{}).
		Where("id = ? AND status = ?", id, enums.MediaStatusPending).
		Updates(map[string]any{
			"status":     enums.MediaStatusReady,
			"public_url": publicURL,
		})
	return result.RowsAffected, result.Error
}

// Delete removes a media record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Media{}).Error
}

// List returns media rows newest first with cursor pagination.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Media, error) {
	query := r.db.WithContext(ctx).Model(&models.Media{})

	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, err
		}
		if cursor != nil {
			query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}
	}

	var rows []models.Media
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
