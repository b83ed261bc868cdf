package controllers

import (
	"io"
	"net/http"

	"github.com/verdeleaf/storefront-backend/api/responses"
	stripewebhook "github.com/verdeleaf/storefront-backend/internal/webhooks/stripe"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
)

const stripeSignatureHeader = "Stripe-Signature"

// Stripe caps webhook payloads well below this.
const maxWebhookBody = 1 << 20

// StripeWebhook verifies and dispatches payment events. A bad signature
// is rejected before anything touches the order pipeline.
func StripeWebhook(svc *stripewebhook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if err := svc.HandlePayload(ctx, payload, r.Header.Get(stripeSignatureHeader)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "received"})
	}
}
