package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdeleaf/storefront-backend/pkg/config"
	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
	"github.com/verdeleaf/storefront-backend/pkg/pagination"
)

const (
	maxUploadBytes   = 10 * 1024 * 1024
	defaultUploadTTL = 15 * time.Minute
)

var allowedImageMimeTypes = []string{
	"image/png",
	"image/jpeg",
	"image/webp",
	"image/gif",
}

type mediaStore interface {
	Create(ctx context.Context, media *models.Media) (*models.Media, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error)
	MarkReady(ctx context.Context, id uuid.UUID, publicURL string) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params pagination.Params) ([]models.Media, error)
}

type objectStorage interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) error
}

// Service manages storefront image uploads: a pending metadata row plus a
// signed PUT URL, confirmed to ready once the browser finishes the upload.
type Service struct {
	repo          mediaStore
	storage       objectStorage
	logg          *logger.Logger
	bucket        string
	publicBaseURL string
	uploadTTL     time.Duration
}

// ServiceParams collects the media service dependencies.
type ServiceParams struct {
	Repo      mediaStore
	Storage   objectStorage
	Logger    *logger.Logger
	GCS       config.GCSConfig
	UploadTTL time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("media repository is required")
	}
	if params.Storage == nil {
		return nil, errors.New("object storage client is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.GCS.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}
	ttl := params.UploadTTL
	if ttl <= 0 {
		ttl = defaultUploadTTL
	}
	baseURL := strings.TrimRight(params.GCS.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com"
	}
	return &Service{
		repo:          params.Repo,
		storage:       params.Storage,
		logg:          params.Logger,
		bucket:        params.GCS.BucketName,
		publicBaseURL: baseURL,
		uploadTTL:     ttl,
	}, nil
}

// UploadInput describes the file an admin wants to upload.
type UploadInput struct {
	FileName  string
	MimeType  string
	SizeBytes int64
}

// UploadTicket is returned to the client so it can PUT the bytes directly
// to the bucket and then confirm the upload.
type UploadTicket struct {
	MediaID      uuid.UUID `json:"media_id"`
	GCSKey       string    `json:"gcs_key"`
	SignedPutURL string    `json:"signed_put_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RequestUpload validates the file metadata, records a pending media row and
// signs a PUT URL for the browser upload.
func (s *Service) RequestUpload(ctx context.Context, input UploadInput) (*UploadTicket, error) {
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size_bytes must not exceed %d bytes", maxUploadBytes))
	}
	mimeType := strings.TrimSpace(input.MimeType)
	if !isAllowedImageMime(mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only PNG, JPEG, WebP and GIF images are accepted")
	}

	mediaID := uuid.New()
	gcsKey := buildObjectKey(mediaID, fileName)

	row := &models.Media{
		ID:        mediaID,
		GCSKey:    gcsKey,
		FileName:  fileName,
		MimeType:  mimeType,
		SizeBytes: input.SizeBytes,
		Status:    enums.MediaStatusPending,
	}
	if _, err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist media row")
	}

	signedURL, err := s.storage.SignedURL(s.bucket, gcsKey, mimeType, s.uploadTTL)
	if err != nil {
		if delErr := s.repo.Delete(ctx, mediaID); delErr != nil {
			s.logg.Error(ctx, "failed to roll back media row after signing error", delErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &UploadTicket{
		MediaID:      mediaID,
		GCSKey:       gcsKey,
		SignedPutURL: signedURL,
		ContentType:  mimeType,
		ExpiresAt:    time.Now().Add(s.uploadTTL),
	}, nil
}

// ConfirmUpload marks a pending row ready and exposes its public URL.
// Confirming an already-ready row returns it unchanged.
func (s *Service) ConfirmUpload(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	row, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.Status == enums.MediaStatusReady {
		return row, nil
	}

	publicURL := s.publicURLFor(row.GCSKey)
	updated, err := s.repo.MarkReady(ctx, id, publicURL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark media ready")
	}
	if updated == 0 {
		// Lost a race with a concurrent confirm; the row is ready either way.
		return s.findByID(ctx, id)
	}

	row.Status = enums.MediaStatusReady
	row.PublicURL = &publicURL
	s.logg.Info(s.logg.WithField(ctx, "media_id", id.String()), "media upload confirmed")
	return row, nil
}

// Get returns a single media row.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	return s.findByID(ctx, id)
}

// List returns media rows newest first with an opaque next-page cursor.
func (s *Service) List(ctx context.Context, params pagination.Params) ([]models.Media, string, error) {
	params.Limit = pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list media")
	}

	nextCursor := ""
	if len(rows) > params.Limit {
		rows = rows[:params.Limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// Delete removes the bucket object and then the metadata row.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	row, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteObject(ctx, s.bucket, row.GCSKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete bucket object")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete media row")
	}
	s.logg.Info(s.logg.WithField(ctx, "media_id", id.String()), "media deleted")
	return nil
}

func (s *Service) findByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load media")
	}
	return row, nil
}

func (s *Service) publicURLFor(gcsKey string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, gcsKey)
}

func isAllowedImageMime(mimeType string) bool {
	for _, candidate := range allowedImageMimeTypes {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func buildObjectKey(id uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = id.String()
	}
	return fmt.Sprintf("media/%s/%s", id.String(), cleanName)
}

func sanitizeFileName(name string) string {
	clean := path.Base(strings.TrimSpace(name))
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
