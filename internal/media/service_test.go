package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/verdeleaf/storefront-backend/pkg/config"
	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
	"github.com/verdeleaf/storefront-backend/pkg/pagination"
)

type stubMediaStore struct {
	rows      map[uuid.UUID]*models.Media
	createErr error
	deleted   []uuid.UUID
}

func newStubMediaStore() *stubMediaStore {
	return &stubMediaStore{rows: map[uuid.UUID]*models.Media{}}
}

func (s *stubMediaStore) Create(_ context.Context, media *models.Media) (*models.Media, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	clone := *media
	s.rows[media.ID] = &clone
	return media, nil
}

func (s *stubMediaStore) FindByID(_ context.Context, id uuid.UUID) (*models.Media, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *row
	return &clone, nil
}

func (s *stubMediaStore) MarkReady(_ context.Context, id uuid.UUID, publicURL string) (int64, error) {
	row, ok := s.rows[id]
	if !ok || row.Status != enums.MediaStatusPending {
		return 0, nil
	}
	row.Status = enums.MediaStatusReady
	row.PublicURL = &publicURL
	return 1, nil
}

func (s *stubMediaStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.rows, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubMediaStore) List(_ context.Context, _ pagination.Params) ([]models.Media, error) {
	out := make([]models.Media, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, *row)
	}
	return out, nil
}

type stubStorage struct {
	signErr       error
	deleteErr     error
	signedObjects []string
	deletedKeys   []string
}

func (s *stubStorage) SignedURL(_, object, _ string, _ time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	s.signedObjects = append(s.signedObjects, object)
	return "https://signed.example.com/" + object, nil
}

func (s *stubStorage) DeleteObject(_ context.Context, _, object string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedKeys = append(s.deletedKeys, object)
	return nil
}

func newMediaService(t *testing.T, store *stubMediaStore, storage *stubStorage) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:    store,
		Storage: storage,
		Logger:  logger.New(logger.Options{ServiceName: "media-test", Output: io.Discard}),
		GCS: config.GCSConfig{
			BucketName:    "verdeleaf-media",
			PublicBaseURL: "https://storage.googleapis.com",
		},
	})
	require.NoError(t, err)
	return svc
}

func requireMediaCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, code, coded.Code())
}

func TestRequestUploadCreatesPendingRowAndSignsURL(t *testing.T) {
	store := newStubMediaStore()
	storage := &stubStorage{}
	svc := newMediaService(t, store, storage)

	ticket, err := svc.RequestUpload(context.Background(), UploadInput{
		FileName:  "hero image.png",
		MimeType:  "image/png",
		SizeBytes: 4096,
	})
	require.NoError(t, err)
	require.Equal(t, "image/png", ticket.ContentType)
	require.True(t, strings.HasSuffix(ticket.GCSKey, "/hero-image.png"))
	require.True(t, strings.HasPrefix(ticket.GCSKey, "media/"))
	require.Equal(t, "https://signed.example.com/"+ticket.GCSKey, ticket.SignedPutURL)

	row, ok := store.rows[ticket.MediaID]
	require.True(t, ok)
	require.Equal(t, enums.MediaStatusPending, row.Status)
	require.Nil(t, row.PublicURL)
}

func TestRequestUploadValidation(t *testing.T) {
	store := newStubMediaStore()
	svc := newMediaService(t, store, &stubStorage{})
	ctx := context.Background()

	tests := []struct {
		name  string
		input UploadInput
	}{
		{"missing file name", UploadInput{MimeType: "image/png", SizeBytes: 10}},
		{"zero size", UploadInput{FileName: "a.png", MimeType: "image/png"}},
		{"oversized", UploadInput{FileName: "a.png", MimeType: "image/png", SizeBytes: maxUploadBytes + 1}},
		{"pdf rejected", UploadInput{FileName: "doc.pdf", MimeType: "application/pdf", SizeBytes: 10}},
		{"missing mime", UploadInput{FileName: "a.png", SizeBytes: 10}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RequestUpload(ctx, tc.input)
			requireMediaCode(t, err, pkgerrors.CodeValidation)
		})
	}
	require.Empty(t, store.rows)
}

func TestRequestUploadRollsBackRowOnSignFailure(t *testing.T) {
	store := newStubMediaStore()
	storage := &stubStorage{signErr: errors.New("signer unavailable")}
	svc := newMediaService(t, store, storage)

	_, err := svc.RequestUpload(context.Background(), UploadInput{
		FileName:  "photo.jpg",
		MimeType:  "image/jpeg",
		SizeBytes: 1024,
	})
	requireMediaCode(t, err, pkgerrors.CodeDependency)
	require.Empty(t, store.rows)
	require.Len(t, store.deleted, 1)
}

func TestConfirmUploadPublishesURL(t *testing.T) {
	store := newStubMediaStore()
	svc := newMediaService(t, store, &stubStorage{})
	ctx := context.Background()

	ticket, err := svc.RequestUpload(ctx, UploadInput{FileName: "p.webp", MimeType: "image/webp", SizeBytes: 512})
	require.NoError(t, err)

	row, err := svc.ConfirmUpload(ctx, ticket.MediaID)
	require.NoError(t, err)
	require.Equal(t, enums.MediaStatusReady, row.Status)
	require.NotNil(t, row.PublicURL)
	require.Equal(t, "https://storage.googleapis.com/verdeleaf-media/"+ticket.GCSKey, *row.PublicURL)

	// Confirming again is a no-op that returns the same URL.
	again, err := svc.ConfirmUpload(ctx, ticket.MediaID)
	require.NoError(t, err)
	require.Equal(t, *row.PublicURL, *again.PublicURL)
}

func TestConfirmUploadUnknownID(t *testing.T) {
	svc := newMediaService(t, newStubMediaStore(), &stubStorage{})

	_, err := svc.ConfirmUpload(context.Background(), uuid.New())
	requireMediaCode(t, err, pkgerrors.CodeNotFound)
}

func TestDeleteRemovesObjectThenRow(t *testing.T) {
	store := newStubMediaStore()
	storage := &stubStorage{}
	svc := newMediaService(t, store, storage)
	ctx := context.Background()

	ticket, err := svc.RequestUpload(ctx, UploadInput{FileName: "old.gif", MimeType: "image/gif", SizeBytes: 256})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, ticket.MediaID))
	require.Equal(t, []string{ticket.GCSKey}, storage.deletedKeys)
	require.Empty(t, store.rows)
}

func TestDeleteKeepsRowWhenObjectDeleteFails(t *testing.T) {
	store := newStubMediaStore()
	storage := &stubStorage{}
	svc := newMediaService(t, store, storage)
	ctx := context.Background()

	ticket, err := svc.RequestUpload(ctx, UploadInput{FileName: "keep.png", MimeType: "image/png", SizeBytes: 256})
	require.NoError(t, err)

	storage.deleteErr = errors.New("bucket unreachable")
	err = svc.Delete(ctx, ticket.MediaID)
	requireMediaCode(t, err, pkgerrors.CodeDependency)
	require.Contains(t, store.rows, ticket.MediaID)
}
