package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
	"github.com/verdeleaf/storefront-backend/pkg/metrics"
)

type checkoutFinalizer interface {
	Complete(ctx context.Context, paymentIntentID string, gatewayCustomerID *string) (*models.Order, error)
	Fail(ctx context.Context, paymentIntentID string) error
}

// ServiceParams bundles the webhook service dependencies.
type ServiceParams struct {
	Checkout      checkoutFinalizer
	Guard         *IdempotencyGuard
	SigningSecret string
	Metrics       *metrics.WebhookMetrics
	Logger        *logger.Logger
}

// Service verifies, deduplicates and dispatches Stripe events. Order
// creation itself is idempotent one layer down, so the redis guard is
// an optimization, not the only defense against replays.
type Service struct {
	checkout      checkoutFinalizer
	guard         *IdempotencyGuard
	signingSecret string
	metrics       *metrics.WebhookMetrics
	logg          *logger.Logger
}

// NewService validates dependencies and builds the webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Checkout == nil {
		return nil, fmt.Errorf("checkout service is required")
	}
	if params.Guard == nil {
		return nil, fmt.Errorf("idempotency guard is required")
	}
	if params.SigningSecret == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{
		checkout:      params.Checkout,
		guard:         params.Guard,
		signingSecret: params.SigningSecret,
		metrics:       params.Metrics,
		logg:          params.Logger,
	}, nil
}

// HandlePayload verifies the signature and processes the event. A bad
// signature is rejected outright; no state changes, no order.
func (s *Service) HandlePayload(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := webhook.ConstructEvent(payload, signatureHeader, s.signingSecret)
	if err != nil {
		s.metrics.IncRejected()
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook signature")
	}
	return s.HandleEvent(ctx, &event)
}

// HandleEvent dispatches a verified event through the idempotency
// guard. A second delivery of the same event id is a no-op success.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event is required")
	}

	eventType := string(event.Type)
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
	default:
		return nil
	}

	duplicate, err := s.guard.CheckAndMark(ctx, event.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook idempotency check")
	}
	if duplicate {
		s.metrics.IncDuplicate(eventType)
		s.logg.Info(ctx, fmt.Sprintf("webhook event %s already processed", event.ID))
		return nil
	}

	if err := s.dispatch(ctx, event); err != nil {
		s.metrics.IncFailed(eventType)
		// Unmark so the gateway's retry can reprocess.
		if delErr := s.guard.Delete(ctx, event.ID); delErr != nil {
			s.logg.Error(ctx, "releasing webhook idempotency mark", delErr)
		}
		return err
	}
	s.metrics.IncProcessed(eventType)
	return nil
}

func (s *Service) dispatch(ctx context.Context, event *stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
	}
	if intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var customerID *string
		if intent.Customer != nil && intent.Customer.ID != "" {
			id := intent.Customer.ID
			customerID = &id
		}
		order, err := s.checkout.Complete(ctx, intent.ID, customerID)
		if err != nil {
			return err
		}
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), fmt.Sprintf("payment %s settled", intent.ID))
		return nil
	case stripe.EventTypePaymentIntentPaymentFailed:
		return s.checkout.Fail(ctx, intent.ID)
	default:
		return nil
	}
}
