package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/verdeleaf/storefront-backend/pkg/db/models"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS admin_users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'admin',
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestRepositoryFindByEmailCaseInsensitive(t *testing.T) {
	db := setupAuthTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	admin := &models.AdminUser{
		ID:           uuid.New(),
		Email:        "ops@verdeleaf.fr",
		PasswordHash: "$argon2id$stub",
		Role:         "admin",
	}
	_, err := repo.Create(ctx, admin)
	require.NoError(t, err)

	found, err := repo.FindByEmail(ctx, "OPS@Verdeleaf.FR")
	require.NoError(t, err)
	require.Equal(t, admin.ID, found.ID)

	_, err = repo.FindByEmail(ctx, "nobody@verdeleaf.fr")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateLastLogin(t *testing.T) {
	db := setupAuthTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	admin := &models.AdminUser{
		ID:           uuid.New(),
		Email:        "editor@verdeleaf.fr",
		PasswordHash: "$argon2id$stub",
		Role:         "editor",
	}
	_, err := repo.Create(ctx, admin)
	require.NoError(t, err)

	stamp := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, admin.ID, stamp))

	found, err := repo.FindByID(ctx, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	require.True(t, found.LastLoginAt.Equal(stamp))
}
