package media

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
	"github.com/verdeleaf/storefront-backend/pkg/pagination"
)

func setupMediaTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS media (
  id TEXT PRIMARY KEY,
  gcs_key TEXT NOT NULL UNIQUE,
  file_name TEXT NOT NULL,
  mime_type TEXT NOT NULL,
  size_bytes INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  public_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newTestMedia(createdAt time.Time) *models.Media {
	id := uuid.New()
	return &models.Media{
		ID:        id,
		GCSKey:    "media/" + id.String() + "/photo.png",
		FileName:  "photo.png",
		MimeType:  "image/png",
		SizeBytes: 2048,
		Status:    enums.MediaStatusPending,
		CreatedAt: createdAt,
	}
}

func TestRepositoryMarkReadyOnlyPending(t *testing.T) {
	db := setupMediaTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	row := newTestMedia(time.Now())
	_, err := repo.Create(ctx, row)
	require.NoError(t, err)

	updated, err := repo.MarkReady(ctx, row.ID, "https://cdn.example.com/"+row.GCSKey)
	require.NoError(t, err)
	require.EqualValues(t, 1, updated)

	found, err := repo.FindByID(ctx, row.ID)
	require.NoError(t, err)
	require.Equal(t, enums.MediaStatusReady, found.Status)
	require.NotNil(t, found.PublicURL)
	require.Equal(t, "https://cdn.example.com/"+row.GCSKey, *found.PublicURL)

	// Second confirm hits zero pending rows.
	updated, err = repo.MarkReady(ctx, row.ID, "https://elsewhere.example.com/x")
	require.NoError(t, err)
	require.EqualValues(t, 0, updated)

	found, err = repo.FindByID(ctx, row.ID)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/"+row.GCSKey, *found.PublicURL)
}

func TestRepositoryDuplicateKeyRejected(t *testing.T) {
	db := setupMediaTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := newTestMedia(time.Now())
	_, err := repo.Create(ctx, first)
	require.NoError(t, err)

	second := newTestMedia(time.Now())
	second.GCSKey = first.GCSKey
	_, err = repo.Create(ctx, second)
	require.Error(t, err)
}

func TestRepositoryListNewestFirstWithCursor(t *testing.T) {
	db := setupMediaTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var rows []*models.Media
	for i := 0; i < 4; i++ {
		row := newTestMedia(base.Add(time.Duration(i) * time.Minute))
		_, err := repo.Create(ctx, row)
		require.NoError(t, err)
		rows = append(rows, row)
	}

	page, err := repo.List(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 3) // limit + buffer row
	require.Equal(t, rows[3].ID, page[0].ID)
	require.Equal(t, rows[2].ID, page[1].ID)

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: page[1].CreatedAt, ID: page[1].ID})
	next, err := repo.List(ctx, pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, next, 2)
	require.Equal(t, rows[1].ID, next[0].ID)
	require.Equal(t, rows[0].ID, next[1].ID)
}

func TestRepositoryDelete(t *testing.T) {
	db := setupMediaTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	row := newTestMedia(time.Now())
	_, err := repo.Create(ctx, row)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, row.ID))

	_, err = repo.FindByID(ctx, row.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
