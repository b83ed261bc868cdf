package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verdeleaf/storefront-backend/api/controllers"
	"github.com/verdeleaf/storefront-backend/api/middleware"
	authsvc "github.com/verdeleaf/storefront-backend/internal/auth"
	cartsvc "github.com/verdeleaf/storefront-backend/internal/cart"
	catalogsvc "github.com/verdeleaf/storefront-backend/internal/catalog"
	checkoutsvc "github.com/verdeleaf/storefront-backend/internal/checkout"
	mediasvc "github.com/verdeleaf/storefront-backend/internal/media"
	orderssvc "github.com/verdeleaf/storefront-backend/internal/orders"
	promossvc "github.com/verdeleaf/storefront-backend/internal/promos"
	stripewebhook "github.com/verdeleaf/storefront-backend/internal/webhooks/stripe"
	"github.com/verdeleaf/storefront-backend/pkg/auth/session"
	"github.com/verdeleaf/storefront-backend/pkg/config"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
	redisclient "github.com/verdeleaf/storefront-backend/pkg/redis"
)

const (
	loginRateLimit       = 10
	loginRateLimitWindow = time.Minute
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Redis    *redisclient.Client
	Sessions *session.Manager
	Health   map[string]controllers.Pinger
	Auth     *authsvc.Service
	Catalog  *catalogsvc.Service
	Cart     *cartsvc.Service
	Checkout *checkoutsvc.Service
	Orders   *orderssvc.Service
	Promos   *promossvc.Service
	Media    *mediasvc.Service
	Webhooks *stripewebhook.Service
	Registry *prometheus.Registry
}

// NewRouter wires every route group behind the shared middleware chain.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(nil),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Health))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Catalog, logg))
			r.Get("/{slug}", controllers.GetProductBySlug(deps.Catalog, logg))
		})
		r.Get("/categories", controllers.ListCategories(deps.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Cart, logg))
			r.Delete("/", controllers.ClearCart(deps.Cart, logg))
			r.Post("/items", controllers.AddCartItem(deps.Cart, deps.Catalog, logg))
			r.Patch("/items/{lineID}", controllers.UpdateCartItem(deps.Cart, logg))
			r.Delete("/items/{lineID}", controllers.RemoveCartItem(deps.Cart, logg))
			r.Post("/quote", controllers.CheckoutQuote(deps.Checkout, logg))
		})

		r.Get("/orders/{id}", controllers.GetOrder(deps.Orders, logg))

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/begin", controllers.BeginCheckout(deps.Checkout, logg))
			r.Post("/confirm", controllers.ConfirmCheckout(deps.Checkout, logg))
		})

		r.Post("/webhooks/stripe", controllers.StripeWebhook(deps.Webhooks, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.RateLimit("login", deps.Redis, loginRateLimit, loginRateLimitWindow, logg)).
			Post("/auth/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/auth/refresh", controllers.AuthRefresh(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Post("/auth/logout", controllers.AuthLogout(deps.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin", logg))

				r.Route("/products", func(r chi.Router) {
					r.Get("/", controllers.AdminListProducts(deps.Catalog, logg))
					r.Post("/", controllers.AdminCreateProduct(deps.Catalog, logg))
					r.Get("/{id}", controllers.AdminGetProduct(deps.Catalog, logg))
					r.Put("/{id}", controllers.AdminUpdateProduct(deps.Catalog, logg))
					r.Delete("/{id}", controllers.AdminDeleteProduct(deps.Catalog, logg))
				})

				r.Route("/categories", func(r chi.Router) {
					r.Post("/", controllers.AdminCreateCategory(deps.Catalog, logg))
					r.Put("/{id}", controllers.AdminUpdateCategory(deps.Catalog, logg))
					r.Delete("/{id}", controllers.AdminDeleteCategory(deps.Catalog, logg))
				})

				r.Route("/orders", func(r chi.Router) {
					r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
					r.Get("/{id}", controllers.AdminGetOrder(deps.Orders, logg))
					r.Patch("/{id}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
				})

				r.Route("/promos", func(r chi.Router) {
					r.Get("/", controllers.AdminListPromos(deps.Promos, logg))
					r.Post("/", controllers.AdminCreatePromo(deps.Promos, logg))
					r.Get("/{id}", controllers.AdminGetPromo(deps.Promos, logg))
					r.Patch("/{id}", controllers.AdminUpdatePromo(deps.Promos, logg))
					r.Delete("/{id}", controllers.AdminDeletePromo(deps.Promos, logg))
				})

				r.Route("/media", func(r chi.Router) {
					r.Get("/", controllers.AdminListMedia(deps.Media, logg))
					r.Post("/uploads", controllers.AdminRequestUpload(deps.Media, logg))
					r.Post("/uploads/{id}/confirm", controllers.AdminConfirmUpload(deps.Media, logg))
					r.Delete("/{id}", controllers.AdminDeleteMedia(deps.Media, logg))
				})
			})
		})
	})

	return r
}
