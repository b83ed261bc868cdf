package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/verdeleaf/storefront-backend/pkg/config"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Client wraps Stripe's API client plus env-specific metadata.
type Client struct {
	api           *stripe.Client
	environment   string
	signingSecret string
}

// NewClient initializes Stripe once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	signingSecret := strings.TrimSpace(cfg.Secret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}

	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	api := stripe.NewClient(apiKey)

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{
		api:           api,
		environment:   env,
		signingSecret: signingSecret,
	}, nil
}

// API returns the underlying Stripe API client.
func (c *Client) API() *stripe.Client {
	if c == nil {
		return nil
	}
	return c.api
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// PaymentIntentInput carries the charge parameters for a checkout session.
type PaymentIntentInput struct {
	AmountMinorUnits int64
	Currency         string
	ReceiptEmail     string
	Description      string
	Metadata         map[string]string
}

// PaymentIntentSucceeded is the only intent status that settles a
// checkout session.
const PaymentIntentSucceeded = string(stripe.PaymentIntentStatusSucceeded)

// PaymentIntent is the subset of the gateway response checkout needs.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	CustomerID   string
	Status       string
}

// CreatePaymentIntent opens a card-collection intent for the given amount.
func (c *Client) CreatePaymentIntent(ctx context.Context, input PaymentIntentInput) (*PaymentIntent, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if input.AmountMinorUnits <= 0 {
		return nil, fmt.Errorf("payment amount must be positive, got %d", input.AmountMinorUnits)
	}
	currency := strings.TrimSpace(strings.ToLower(input.Currency))
	if currency == "" {
		return nil, errors.New("payment currency is required")
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(input.AmountMinorUnits),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if input.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(input.ReceiptEmail)
	}
	if input.Description != "" {
		params.Description = stripe.String(input.Description)
	}
	if len(input.Metadata) > 0 {
		params.Metadata = input.Metadata
	}

	intent, err := c.api.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return newPaymentIntent(intent), nil
}

// RetrievePaymentIntent reads the live state of an intent from the
// gateway. Checkout confirmation uses it to verify a payment actually
// settled before trusting a client-reported intent id.
func (c *Client) RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("payment intent id is required")
	}

	intent, err := c.api.V1PaymentIntents.Retrieve(ctx, id, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent: %w", err)
	}
	return newPaymentIntent(intent), nil
}

func newPaymentIntent(intent *stripe.PaymentIntent) *PaymentIntent {
	out := &PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}
	if intent.Customer != nil {
		out.CustomerID = intent.Customer.ID
	}
	return out
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
