package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
	"github.com/verdeleaf/storefront-backend/pkg/types"
)

// Service owns cart load/mutate/persist. Every mutation writes the
// full serialized collection back through the storage port.
type Service struct {
	store Storage
	logg  *logger.Logger
}

// NewService validates dependencies and builds the cart service.
func NewService(store Storage, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart storage is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{store: store, logg: logg}, nil
}

// NewToken mints a fresh cart token for sessions without one.
func NewToken() string {
	return uuid.NewString()
}

// Load deserializes a cart from storage. A missing entry is an empty
// cart; malformed stored state also fails open to an empty cart with a
// warning rather than blocking the shopper.
func (s *Service) Load(ctx context.Context, token string) (*Cart, error) {
	if strings.TrimSpace(token) == "" {
		return &Cart{}, nil
	}

	payload, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}
	if payload == "" {
		return &Cart{}, nil
	}

	var loaded Cart
	if err := json.Unmarshal([]byte(payload), &loaded); err != nil {
		s.logg.Warn(s.logg.WithCartToken(ctx, token), "malformed cart payload, starting empty")
		return &Cart{}, nil
	}
	return &loaded, nil
}

func (s *Service) save(ctx context.Context, token string, c *Cart) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serializing cart")
	}
	if err := s.store.Set(ctx, token, string(payload)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting cart")
	}
	return nil
}

// AddItem appends or merges a line item with a positive quantity.
func (s *Service) AddItem(ctx context.Context, token string, item types.LineItemSnapshot, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}
	if strings.TrimSpace(item.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item id is required")
	}
	if item.UnitPriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}

	current, err := s.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	current.Add(item, quantity)
	if err := s.save(ctx, token, current); err != nil {
		return nil, err
	}
	return current, nil
}

// UpdateQuantity sets a line's quantity; zero or below removes it.
func (s *Service) UpdateQuantity(ctx context.Context, token, id string, quantity int) (*Cart, error) {
	current, err := s.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	current.UpdateQuantity(id, quantity)
	if err := s.save(ctx, token, current); err != nil {
		return nil, err
	}
	return current, nil
}

// RemoveItem deletes a line by ID; missing lines are a no-op.
func (s *Service) RemoveItem(ctx context.Context, token, id string) (*Cart, error) {
	current, err := s.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	current.Remove(id)
	if err := s.save(ctx, token, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Clear empties the cart and erases the persisted entry.
func (s *Service) Clear(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	if err := s.store.Remove(ctx, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart")
	}
	return nil
}
