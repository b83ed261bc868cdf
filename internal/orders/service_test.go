package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
	"github.com/verdeleaf/storefront-backend/pkg/pagination"
	"github.com/verdeleaf/storefront-backend/pkg/types"
)

type stubOrderStore struct {
	byID          map[uuid.UUID]*models.Order
	byTransaction map[string]*models.Order
	listResult    []models.Order
	statusUpdates map[uuid.UUID]enums.OrderStatus
}

func newStubOrderStore() *stubOrderStore {
	return &stubOrderStore{
		byID:          map[uuid.UUID]*models.Order{},
		byTransaction: map[string]*models.Order{},
		statusUpdates: map[uuid.UUID]enums.OrderStatus{},
	}
}

func (s *stubOrderStore) add(order *models.Order) {
	s.byID[order.ID] = order
	s.byTransaction[order.GatewayTransactionID] = order
}

func (s *stubOrderStore) Upsert(_ context.Context, order *models.Order) (*models.Order, error) {
	if existing, ok := s.byTransaction[order.GatewayTransactionID]; ok {
		return existing, nil
	}
	s.add(order)
	return order, nil
}

func (s *stubOrderStore) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.byID[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderStore) FindByGatewayTransactionID(_ context.Context, transactionID string) (*models.Order, error) {
	if order, ok := s.byTransaction[transactionID]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderStore) List(_ context.Context, _ ListFilter, _ pagination.Params) ([]models.Order, error) {
	return s.listResult, nil
}

func (s *stubOrderStore) UpdateStatus(_ context.Context, id uuid.UUID, status enums.OrderStatus) error {
	s.statusUpdates[id] = status
	if order, ok := s.byID[id]; ok {
		order.Status = status
	}
	return nil
}

func newOrdersService(t *testing.T, store orderStore) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	svc, err := NewService(store, logg)
	require.NoError(t, err)
	return svc
}

func TestCreateFromSessionBuildsOrder(t *testing.T) {
	store := newStubOrderStore()
	svc := newOrdersService(t, store)

	promo := "WELCOME10"
	productID := uuid.New()
	session := &models.CheckoutSession{
		ID:              uuid.New(),
		PaymentIntentID: "pi_123",
		Status:          enums.CheckoutSessionOpen,
		Items: types.LineItemSnapshots{
			{ID: productID.String() + ":3g", ProductID: productID.String(), Name: "og kush 3g", UnitPriceCents: 2100, Quantity: 2},
			{ID: "not-a-uuid", ProductID: "not-a-uuid", Name: "mystery", UnitPriceCents: 500, Quantity: 1},
		},
		SubtotalCents:  4700,
		ShippingCents:  690,
		DiscountCents:  470,
		TotalCents:     4920,
		Currency:       "eur",
		ShippingMethod: enums.ShippingDomicile48h,
		PromoCode:      &promo,
		CustomerEmail:  "buyer@example.com",
	}

	customerID := "cus_42"
	order, err := svc.CreateFromSession(context.Background(), session, &customerID)
	require.NoError(t, err)
	require.Equal(t, "pi_123", order.GatewayTransactionID)
	require.Equal(t, enums.OrderStatusPaid, order.Status)
	require.Equal(t, 4920, order.TotalCents)
	require.Equal(t, &customerID, order.GatewayCustomerID)
	require.Len(t, order.Items, 2)
	require.Equal(t, 4200, order.Items[0].TotalCents)
	require.NotNil(t, order.Items[0].ProductID)
	require.Equal(t, productID, *order.Items[0].ProductID)
	// Unparseable product references still snapshot, just without a link.
	require.Nil(t, order.Items[1].ProductID)
}

func TestCreateFromSessionDuplicateIsNoOp(t *testing.T) {
	store := newStubOrderStore()
	svc := newOrdersService(t, store)

	session := &models.CheckoutSession{
		ID:              uuid.New(),
		PaymentIntentID: "pi_dup",
		TotalCents:      1000,
		Currency:        "eur",
		ShippingMethod:  enums.ShippingPointRelais48h,
		CustomerEmail:   "buyer@example.com",
	}

	first, err := svc.CreateFromSession(context.Background(), session, nil)
	require.NoError(t, err)
	second, err := svc.CreateFromSession(context.Background(), session, nil)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, store.byID, 1)
}

func TestUpdateStatusTransitionMatrix(t *testing.T) {
	cases := []struct {
		name    string
		from    enums.OrderStatus
		to      enums.OrderStatus
		allowed bool
	}{
		{"pending to paid", enums.OrderStatusPending, enums.OrderStatusPaid, true},
		{"pending to failed", enums.OrderStatusPending, enums.OrderStatusFailed, true},
		{"paid to refunded", enums.OrderStatusPaid, enums.OrderStatusRefunded, true},
		{"pending to refunded", enums.OrderStatusPending, enums.OrderStatusRefunded, false},
		{"paid to pending", enums.OrderStatusPaid, enums.OrderStatusPending, false},
		{"failed to paid", enums.OrderStatusFailed, enums.OrderStatusPaid, false},
		{"refunded to paid", enums.OrderStatusRefunded, enums.OrderStatusPaid, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStubOrderStore()
			order := &models.Order{
				ID:                   uuid.New(),
				GatewayTransactionID: "pi_" + uuid.NewString(),
				Status:               tc.from,
			}
			store.add(order)
			svc := newOrdersService(t, store)

			updated, err := svc.UpdateStatus(context.Background(), order.ID, tc.to)
			if tc.allowed {
				require.NoError(t, err)
				require.Equal(t, tc.to, updated.Status)
				return
			}
			typed := pkgerrors.As(err)
			require.NotNil(t, typed, "expected coded error, got %v", err)
			require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
			require.Empty(t, store.statusUpdates)
		})
	}
}

func TestUpdateStatusSameStatusIsNoOp(t *testing.T) {
	store := newStubOrderStore()
	order := &models.Order{ID: uuid.New(), GatewayTransactionID: "pi_same", Status: enums.OrderStatusPaid}
	store.add(order)
	svc := newOrdersService(t, store)

	updated, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPaid)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPaid, updated.Status)
	require.Empty(t, store.statusUpdates)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	svc := newOrdersService(t, newStubOrderStore())

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), enums.OrderStatusPaid)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListTrimsBufferAndBuildsCursor(t *testing.T) {
	store := newStubOrderStore()
	store.listResult = []models.Order{
		{ID: uuid.New()},
		{ID: uuid.New()},
		{ID: uuid.New()},
	}
	svc := newOrdersService(t, store)

	orders, next, err := svc.List(context.Background(), ListFilter{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.NotEmpty(t, next)
}
