package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdeleaf/storefront-backend/internal/cart"
	"github.com/verdeleaf/storefront-backend/internal/pricing"
	"github.com/verdeleaf/storefront-backend/internal/promos"
	"github.com/verdeleaf/storefront-backend/pkg/config"
	"github.com/verdeleaf/storefront-backend/pkg/db"
	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
	stripeclient "github.com/verdeleaf/storefront-backend/pkg/stripe"
	"github.com/verdeleaf/storefront-backend/pkg/types"
)

type cartLoader interface {
	Load(ctx context.Context, token string) (*cart.Cart, error)
	Clear(ctx context.Context, token string) error
}

type productFinder interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type promoValidator interface {
	Validate(ctx context.Context, rawCode string, subtotalCents int, now time.Time) (promos.Result, error)
}

type shippingResolver interface {
	Cost(ctx context.Context, subtotalCents int, method enums.ShippingMethod) int
}

type paymentGateway interface {
	CreatePaymentIntent(ctx context.Context, input stripeclient.PaymentIntentInput) (*stripeclient.PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*stripeclient.PaymentIntent, error)
}

type sessionStore interface {
	Create(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error)
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.CheckoutSession, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CheckoutSessionStatus) error
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type orderCreator interface {
	CreateFromSession(ctx context.Context, session *models.CheckoutSession, gatewayCustomerID *string) (*models.Order, error)
}

// ServiceParams bundles the checkout service dependencies.
type ServiceParams struct {
	Carts    cartLoader
	Catalog  productFinder
	Promos   promoValidator
	Shipping shippingResolver
	Gateway  paymentGateway
	Sessions sessionStore
	Orders   orderCreator
	Config   config.CheckoutConfig
	Logger   *logger.Logger
}

// Service owns the authoritative total computation and the gateway
// handoff. Every amount is recomputed server-side from the stored cart
// and the live catalog; nothing priced by the client is trusted.
type Service struct {
	carts    cartLoader
	catalog  productFinder
	promos   promoValidator
	shipping shippingResolver
	gateway  paymentGateway
	sessions sessionStore
	orders   orderCreator
	cfg      config.CheckoutConfig
	logg     *logger.Logger
}

// NewService validates dependencies and builds the checkout service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service is required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	if params.Promos == nil {
		return nil, fmt.Errorf("promo validator is required")
	}
	if params.Shipping == nil {
		return nil, fmt.Errorf("shipping resolver is required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session repository is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order creator is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{
		carts:    params.Carts,
		catalog:  params.Catalog,
		promos:   params.Promos,
		shipping: params.Shipping,
		gateway:  params.Gateway,
		sessions: params.Sessions,
		orders:   params.Orders,
		cfg:      params.Config,
		logg:     params.Logger,
	}, nil
}

// Quote is the priced breakdown returned before payment.
type Quote struct {
	Items  []types.LineItemSnapshot `json:"items"`
	Totals Totals                   `json:"totals"`
	Promo  *promos.Result           `json:"promo,omitempty"`
}

// BuildQuote prices the stored cart for the given shipping method and
// optional promo code. Promo failures come back inside the quote, not
// as errors.
func (s *Service) BuildQuote(ctx context.Context, cartToken string, method enums.ShippingMethod, promoCode string) (*Quote, error) {
	loaded, err := s.carts.Load(ctx, cartToken)
	if err != nil {
		return nil, err
	}

	subtotal := int(loaded.TotalCents())
	discount := 0
	var promoResult *promos.Result
	if strings.TrimSpace(promoCode) != "" {
		result, err := s.promos.Validate(ctx, promoCode, subtotal, time.Now())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validating promo code")
		}
		promoResult = &result
		if result.Valid {
			discount = result.DiscountCents
		}
	}

	shipping := s.shipping.Cost(ctx, subtotal, method)
	return &Quote{
		Items:  loaded.Items,
		Totals: ComposeTotals(subtotal, shipping, discount),
		Promo:  promoResult,
	}, nil
}

// BeginInput carries everything needed to open a payment.
type BeginInput struct {
	CartToken       string
	ShippingMethod  enums.ShippingMethod
	PromoCode       string
	CustomerEmail   string
	ShippingAddress types.Address
	BillingAddress  types.Address
}

// BeginResult is returned to the client to drive card collection.
type BeginResult struct {
	SessionID       uuid.UUID `json:"session_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	ClientSecret    string    `json:"client_secret"`
	Totals          Totals    `json:"totals"`
}

// Begin recomputes the full order server-side, opens a payment intent
// for the grand total and persists a checkout session snapshot keyed
// by the intent id.
func (s *Service) Begin(ctx context.Context, input BeginInput) (*BeginResult, error) {
	if strings.TrimSpace(input.CustomerEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}

	loaded, err := s.carts.Load(ctx, input.CartToken)
	if err != nil {
		return nil, err
	}
	if len(loaded.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	verified, err := s.verifyLines(ctx, loaded.Items)
	if err != nil {
		return nil, err
	}

	subtotal := int((&cart.Cart{Items: verified}).TotalCents())

	discount := 0
	var appliedCode *string
	if strings.TrimSpace(input.PromoCode) != "" {
		result, err := s.promos.Validate(ctx, input.PromoCode, subtotal, time.Now())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validating promo code")
		}
		if !result.Valid {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, result.Message)
		}
		discount = result.DiscountCents
		appliedCode = &result.Code
	}

	shipping := s.shipping.Cost(ctx, subtotal, input.ShippingMethod)
	totals := ComposeTotals(subtotal, shipping, discount)

	metadata := map[string]string{"cart_token": input.CartToken}
	if appliedCode != nil {
		metadata["promo_code"] = *appliedCode
	}
	intent, err := s.gateway.CreatePaymentIntent(ctx, stripeclient.PaymentIntentInput{
		AmountMinorUnits: int64(totals.TotalCents),
		Currency:         s.cfg.Currency,
		ReceiptEmail:     input.CustomerEmail,
		Description:      "Verdeleaf order",
		Metadata:         metadata,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating payment intent")
	}

	session := &models.CheckoutSession{
		PaymentIntentID: intent.ID,
		CartToken:       input.CartToken,
		Status:          enums.CheckoutSessionOpen,
		Items:           types.LineItemSnapshots(verified),
		SubtotalCents:   totals.SubtotalCents,
		ShippingCents:   totals.ShippingCents,
		DiscountCents:   totals.DiscountCents,
		TotalCents:      totals.TotalCents,
		Currency:        s.cfg.Currency,
		ShippingMethod:  input.ShippingMethod,
		PromoCode:       appliedCode,
		CustomerEmail:   strings.TrimSpace(input.CustomerEmail),
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
	}
	created, err := s.sessions.Create(ctx, session)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment intent already has a session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting checkout session")
	}

	s.logg.Info(s.logg.WithCartToken(ctx, input.CartToken), fmt.Sprintf("checkout session %s opened for %d cents", created.ID, totals.TotalCents))

	return &BeginResult{
		SessionID:       created.ID,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Totals:          totals,
	}, nil
}

// verifyLines re-resolves every cart line against the live catalog.
// A vanished product, deactivated listing, unknown tier or drifted
// unit price fails validation: the stored cart is stale and must be
// refreshed, never silently repriced at charge time.
func (s *Service) verifyLines(ctx context.Context, items []types.LineItemSnapshot) ([]types.LineItemSnapshot, error) {
	verified := make([]types.LineItemSnapshot, 0, len(items))
	for _, item := range items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product reference %q", item.ProductID))
		}
		product, err := s.catalog.FindProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is no longer available", item.Name))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product for checkout")
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is no longer available", item.Name))
		}

		option, err := resolveLineOption(*product, item)
		if err != nil {
			return nil, err
		}
		variant, err := resolveLineVariant(*product, item)
		if err != nil {
			return nil, err
		}
		unit := pricing.ApplyVariant(option.EffectiveCents(), variant)
		if unit != item.UnitPriceCents {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("the price of %s has changed, refresh your cart", item.Name))
		}
		verified = append(verified, item)
	}
	return verified, nil
}

// resolveLineOption maps a line back to a live catalog option using
// the tier label suffix of the derived line id.
func resolveLineOption(product models.Product, item types.LineItemSnapshot) (pricing.Option, error) {
	options := pricing.Resolve(product)
	label := pricing.DefaultOptionLabel
	if suffix, ok := strings.CutPrefix(item.ID, item.ProductID+":"); ok {
		label = suffix
	}
	// The variant segment of the line id is not part of the tier label.
	if at := strings.Index(label, "@"); at >= 0 {
		label = label[:at]
	}
	if label == pricing.DefaultOptionLabel {
		return pricing.DefaultOption(options), nil
	}
	if option, ok := pricing.FindOption(options, label); ok {
		return option, nil
	}
	return pricing.Option{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is no longer sold in that option", item.Name))
}

// resolveLineVariant maps a line back to the live variant recorded on
// the snapshot. Lines without a variant resolve to nil.
func resolveLineVariant(product models.Product, item types.LineItemSnapshot) (*models.ProductVariant, error) {
	if item.VariantID == "" {
		return nil, nil
	}
	for i := range product.Variants {
		if product.Variants[i].ID.String() == item.VariantID {
			return &product.Variants[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is no longer sold in that variant", item.Name))
}

// Confirm settles a shopper-reported payment. The intent's status is
// re-read from the gateway before anything is finalized; possession of
// an intent id alone proves nothing about payment.
func (s *Service) Confirm(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	intent, err := s.gateway.RetrievePaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieving payment intent")
	}
	if intent.Status != stripeclient.PaymentIntentSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment has not succeeded")
	}

	var customerID *string
	if intent.CustomerID != "" {
		id := intent.CustomerID
		customerID = &id
	}
	return s.Complete(ctx, intent.ID, customerID)
}

// Complete settles the session for a succeeded payment intent: it
// marks the session completed and upserts the order keyed on the
// intent id. Replays converge on the already-created order. Callers
// must have verified the payment (a signed webhook event, or Confirm's
// gateway re-read); Complete itself trusts the intent id.
func (s *Service) Complete(ctx context.Context, paymentIntentID string, gatewayCustomerID *string) (*models.Order, error) {
	session, err := s.sessions.FindByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading checkout session")
	}

	order, err := s.orders.CreateFromSession(ctx, session, gatewayCustomerID)
	if err != nil {
		return nil, err
	}

	if session.Status != enums.CheckoutSessionCompleted {
		if err := s.sessions.UpdateStatus(ctx, session.ID, enums.CheckoutSessionCompleted); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "completing checkout session")
		}
		if err := s.carts.Clear(ctx, session.CartToken); err != nil {
			s.logg.Warn(s.logg.WithCartToken(ctx, session.CartToken), "clearing cart after payment failed")
		}
	}
	return order, nil
}

// Fail records a failed payment attempt against the session. The cart
// is left untouched so the shopper can retry.
func (s *Service) Fail(ctx context.Context, paymentIntentID string) error {
	session, err := s.sessions.FindByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading checkout session")
	}
	if session.Status != enums.CheckoutSessionOpen {
		return nil
	}
	if err := s.sessions.UpdateStatus(ctx, session.ID, enums.CheckoutSessionFailed); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failing checkout session")
	}
	return nil
}

// ExpireStale closes open sessions older than the configured TTL.
func (s *Service) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	return expireStale(ctx, s.sessions, s.cfg, now)
}

func expireStale(ctx context.Context, sessions sessionStore, cfg config.CheckoutConfig, now time.Time) (int64, error) {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return sessions.ExpireBefore(ctx, now.Add(-ttl))
}

// Expirer runs session expiry without the rest of the checkout
// dependency set. The cron worker uses it so it does not have to
// construct a payment gateway it never calls.
type Expirer struct {
	sessions sessionStore
	cfg      config.CheckoutConfig
}

func NewExpirer(sessions sessionStore, cfg config.CheckoutConfig) (*Expirer, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session repository is required")
	}
	return &Expirer{sessions: sessions, cfg: cfg}, nil
}

func (e *Expirer) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	return expireStale(ctx, e.sessions, e.cfg, now)
}
