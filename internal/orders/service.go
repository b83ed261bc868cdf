package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
	"github.com/verdeleaf/storefront-backend/pkg/pagination"
)

type orderStore interface {
	Upsert(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByGatewayTransactionID(ctx context.Context, transactionID string) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
}

// Service turns confirmed payments into durable orders and exposes the
// admin order surface.
type Service struct {
	repo orderStore
	logg *logger.Logger
}

// NewService validates dependencies and builds the orders service.
func NewService(repo orderStore, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

// CreateFromSession materializes an order from a completed checkout
// session. The session's payment intent id is the gateway transaction
// id, so a replayed confirmation upserts into the same row and comes
// back as a success no-op.
func (s *Service) CreateFromSession(ctx context.Context, session *models.CheckoutSession, gatewayCustomerID *string) (*models.Order, error) {
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout session is required")
	}

	order := &models.Order{
		ID:                   uuid.New(),
		GatewayTransactionID: session.PaymentIntentID,
		GatewayCustomerID:    gatewayCustomerID,
		Status:               enums.OrderStatusPaid,
		TotalCents:           session.TotalCents,
		Currency:             session.Currency,
		ShippingMethod:       session.ShippingMethod,
		ShippingCents:        session.ShippingCents,
		DiscountCents:        session.DiscountCents,
		PromoCode:            session.PromoCode,
		CustomerEmail:        session.CustomerEmail,
		ShippingAddress:      session.ShippingAddress,
		BillingAddress:       session.BillingAddress,
	}
	for _, item := range session.Items {
		line := models.OrderLineItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			LineID:         item.ID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			TotalCents:     item.UnitPriceCents * item.Quantity,
		}
		if productID, err := uuid.Parse(item.ProductID); err == nil {
			line.ProductID = &productID
		}
		if item.ImageURL != "" {
			imageURL := item.ImageURL
			line.ImageURL = &imageURL
		}
		order.Items = append(order.Items, line)
	}

	stored, err := s.repo.Upsert(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}
	if stored.ID == order.ID {
		s.logg.Info(s.logg.WithOrderID(ctx, stored.ID.String()), fmt.Sprintf("order %d created for intent %s", stored.Number, session.PaymentIntentID))
	}
	return stored, nil
}

// Get loads one order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

// List returns orders for the back office, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, string, error) {
	orders, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	if len(orders) <= limit {
		return orders, "", nil
	}
	orders = orders[:limit]
	last := orders[len(orders)-1]
	return orders, pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}), nil
}

// UpdateStatus applies an admin status change, enforcing the allowed
// transition matrix.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", next))
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == next {
		return order, nil
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order cannot move from %s to %s", order.Status, next))
	}

	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}
	order.Status = next
	return order, nil
}
