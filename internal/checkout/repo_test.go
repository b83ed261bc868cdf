package checkout

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
	"github.com/verdeleaf/storefront-backend/pkg/types"
)

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS checkout_sessions (
  id TEXT PRIMARY KEY,
  payment_intent_id TEXT NOT NULL UNIQUE,
  cart_token TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'open',
  items TEXT NOT NULL,
  subtotal_cents INTEGER NOT NULL,
  shipping_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  currency TEXT NOT NULL,
  shipping_method TEXT NOT NULL,
  promo_code TEXT,
  customer_email TEXT NOT NULL,
  shipping_address TEXT,
  billing_address TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newTestSession(t *testing.T, db *gorm.DB, intentID string, status enums.CheckoutSessionStatus, createdAt time.Time) *models.CheckoutSession {
	t.Helper()

	session := &models.CheckoutSession{
		ID:              uuid.New(),
		PaymentIntentID: intentID,
		CartToken:       uuid.NewString(),
		Status:          status,
		Items: types.LineItemSnapshots{
			{ID: "p1", ProductID: "p1", Name: "og kush", UnitPriceCents: 1500, Quantity: 1},
		},
		SubtotalCents:  1500,
		ShippingCents:  455,
		TotalCents:     1955,
		Currency:       "eur",
		ShippingMethod: enums.ShippingPointRelais48h,
		CustomerEmail:  "buyer@example.com",
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	require.NoError(t, db.Create(session).Error)
	return session
}

func TestRepositoryFindByPaymentIntentID(t *testing.T) {
	db := setupCheckoutTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := newTestSession(t, db, "pi_123", enums.CheckoutSessionOpen, time.Now())

	found, err := repo.FindByPaymentIntentID(ctx, "pi_123")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
	require.Len(t, found.Items, 1)
	require.Equal(t, "og kush", found.Items[0].Name)

	_, err = repo.FindByPaymentIntentID(ctx, "pi_missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryPaymentIntentUnique(t *testing.T) {
	db := setupCheckoutTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	newTestSession(t, db, "pi_once", enums.CheckoutSessionOpen, time.Now())

	_, err := repo.Create(ctx, &models.CheckoutSession{
		ID:              uuid.New(),
		PaymentIntentID: "pi_once",
		CartToken:       uuid.NewString(),
		Currency:        "eur",
		ShippingMethod:  enums.ShippingPointRelais48h,
		CustomerEmail:   "buyer@example.com",
	})
	require.Error(t, err)
}

func TestRepositoryUpdateStatus(t *testing.T) {
	db := setupCheckoutTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	session := newTestSession(t, db, "pi_done", enums.CheckoutSessionOpen, time.Now())

	require.NoError(t, repo.UpdateStatus(ctx, session.ID, enums.CheckoutSessionCompleted))

	reloaded, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutSessionCompleted, reloaded.Status)
}

func TestRepositoryExpireBefore(t *testing.T) {
	db := setupCheckoutTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	stale := newTestSession(t, db, "pi_stale", enums.CheckoutSessionOpen, now.Add(-48*time.Hour))
	fresh := newTestSession(t, db, "pi_fresh", enums.CheckoutSessionOpen, now)
	done := newTestSession(t, db, "pi_done", enums.CheckoutSessionCompleted, now.Add(-48*time.Hour))

	touched, err := repo.ExpireBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, touched)

	reloaded, err := repo.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutSessionExpired, reloaded.Status)

	// Fresh and already-settled sessions are untouched.
	for id, want := range map[uuid.UUID]enums.CheckoutSessionStatus{
		fresh.ID: enums.CheckoutSessionOpen,
		done.ID:  enums.CheckoutSessionCompleted,
	} {
		session, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, want, session.Status)
	}
}
