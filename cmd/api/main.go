package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/verdeleaf/storefront-backend/api/controllers"
	"github.com/verdeleaf/storefront-backend/api/routes"
	authsvc "github.com/verdeleaf/storefront-backend/internal/auth"
	cartsvc "github.com/verdeleaf/storefront-backend/internal/cart"
	catalogsvc "github.com/verdeleaf/storefront-backend/internal/catalog"
	checkoutsvc "github.com/verdeleaf/storefront-backend/internal/checkout"
	mediasvc "github.com/verdeleaf/storefront-backend/internal/media"
	orderssvc "github.com/verdeleaf/storefront-backend/internal/orders"
	promossvc "github.com/verdeleaf/storefront-backend/internal/promos"
	shippingsvc "github.com/verdeleaf/storefront-backend/internal/shipping"
	stripewebhook "github.com/verdeleaf/storefront-backend/internal/webhooks/stripe"
	"github.com/verdeleaf/storefront-backend/pkg/auth/session"
	"github.com/verdeleaf/storefront-backend/pkg/config"
	"github.com/verdeleaf/storefront-backend/pkg/db"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
	"github.com/verdeleaf/storefront-backend/pkg/metrics"
	"github.com/verdeleaf/storefront-backend/pkg/migrate"
	"github.com/verdeleaf/storefront-backend/pkg/redis"
	"github.com/verdeleaf/storefront-backend/pkg/storage/gcs"
	stripeclient "github.com/verdeleaf/storefront-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripeclient.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cloud storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing cloud storage", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	services, err := buildServices(cfg, logg, dbClient, redisClient, stripeClient, gcsClient, sessionManager, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	router := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Redis:    redisClient,
		Sessions: sessionManager,
		Health: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
			"storage":  gcsClient,
		},
		Auth:     services.auth,
		Catalog:  services.catalog,
		Cart:     services.cart,
		Checkout: services.checkout,
		Orders:   services.orders,
		Promos:   services.promos,
		Media:    services.media,
		Webhooks: services.webhooks,
		Registry: registry,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error during server shutdown", err)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

type serviceSet struct {
	auth     *authsvc.Service
	catalog  *catalogsvc.Service
	cart     *cartsvc.Service
	checkout *checkoutsvc.Service
	orders   *orderssvc.Service
	promos   *promossvc.Service
	media    *mediasvc.Service
	webhooks *stripewebhook.Service
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	stripeClient *stripeclient.Client,
	gcsClient *gcs.Client,
	sessionManager *session.Manager,
	registry *prometheus.Registry,
) (*serviceSet, error) {
	gormDB := dbClient.DB()
	catalogRepo := catalogsvc.NewRepository(gormDB)
	ordersRepo := orderssvc.NewRepository(gormDB)
	promosRepo := promossvc.NewRepository(gormDB)
	checkoutRepo := checkoutsvc.NewRepository(gormDB)

	catalogService, err := catalogsvc.NewService(catalogRepo, logg)
	if err != nil {
		return nil, err
	}

	cartStorage, err := cartsvc.NewRedisStorage(redisClient, cfg.Cart.TTL)
	if err != nil {
		return nil, err
	}
	cartService, err := cartsvc.NewService(cartStorage, logg)
	if err != nil {
		return nil, err
	}

	ordersService, err := orderssvc.NewService(ordersRepo, logg)
	if err != nil {
		return nil, err
	}

	promosService, err := promossvc.NewService(promosRepo)
	if err != nil {
		return nil, err
	}
	promoValidator, err := promossvc.NewValidator(promosRepo)
	if err != nil {
		return nil, err
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Carts:    cartService,
		Catalog:  catalogRepo,
		Promos:   promoValidator,
		Shipping: shippingsvc.NewResolver(cfg.Shipping, logg),
		Gateway:  stripeClient,
		Sessions: checkoutRepo,
		Orders:   ordersService,
		Config:   cfg.Checkout,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		AdminRepo:      authsvc.NewRepository(gormDB),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	})
	if err != nil {
		return nil, err
	}

	mediaService, err := mediasvc.NewService(mediasvc.ServiceParams{
		Repo:    mediasvc.NewRepository(gormDB),
		Storage: gcsClient,
		Logger:  logg,
		GCS:     cfg.GCS,
	})
	if err != nil {
		return nil, err
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.EventTTL, "stripe")
	if err != nil {
		return nil, err
	}
	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Checkout:      checkoutService,
		Guard:         webhookGuard,
		SigningSecret: stripeClient.SigningSecret(),
		Metrics:       metrics.NewWebhookMetrics(registry),
		Logger:        logg,
	})
	if err != nil {
		return nil, err
	}

	return &serviceSet{
		auth:     authService,
		catalog:  catalogService,
		cart:     cartService,
		checkout: checkoutService,
		orders:   ordersService,
		promos:   promosService,
		media:    mediaService,
		webhooks: webhookService,
	}, nil
}
