package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/verdeleaf/storefront-backend/pkg/enums"
)

// Media tracks an object stored in the GCS bucket. The key is unique so
// confirm and delete operations resolve the same row the upload created.
type Media struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GCSKey    string            `gorm:"column:gcs_key;not null;uniqueIndex"`
	FileName  string            `gorm:"column:file_name;not null"`
	MimeType  string            `gorm:"column:mime_type;not null"`
	SizeBytes int64             `gorm:"column:size_bytes;not null;default:0"`
	Status    enums.MediaStatus `gorm:"column:status;type:media_status;not null;default:'pending'"`
	PublicURL *string           `gorm:"column:public_url"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
