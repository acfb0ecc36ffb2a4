package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/shop-backend/api/routes"
	"github.com/angelmondragon/shop-backend/internal/address"
	"github.com/angelmondragon/shop-backend/internal/auth"
	"github.com/angelmondragon/shop-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/shop-backend/internal/checkout"
	"github.com/angelmondragon/shop-backend/internal/notifications"
	"github.com/angelmondragon/shop-backend/internal/orders"
	"github.com/angelmondragon/shop-backend/internal/payments"
	product "github.com/angelmondragon/shop-backend/internal/products"
	"github.com/angelmondragon/shop-backend/internal/promos"
	"github.com/angelmondragon/shop-backend/internal/users"
	"github.com/angelmondragon/shop-backend/pkg/auth/session"
	"github.com/angelmondragon/shop-backend/pkg/config"
	"github.com/angelmondragon/shop-backend/pkg/db"
	"github.com/angelmondragon/shop-backend/pkg/logger"
	"github.com/angelmondragon/shop-backend/pkg/mailer"
	"github.com/angelmondragon/shop-backend/pkg/metrics"
	"github.com/angelmondragon/shop-backend/pkg/migrate"
	"github.com/angelmondragon/shop-backend/pkg/money"
	"github.com/angelmondragon/shop-backend/pkg/redis"
	"github.com/angelmondragon/shop-backend/pkg/stripe"
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
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api exited with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	conv, err := money.NewConverterFromConfig(cfg.Currency)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	productRepo := product.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	addressRepo := address.NewRepository(gormDB)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		Tx:             dbClient,
		Users:          userRepo,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}

	catalogService, err := product.NewService(productRepo, conv)
	if err != nil {
		return err
	}
	promoService, err := promos.NewService(promos.NewRepository(gormDB), cfg.Promo.EnforceExpiry)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cartRepo, dbClient, productRepo, promoService, conv)
	if err != nil {
		return err
	}
	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		return err
	}
	addressService, err := address.NewService(addressRepo, dbClient)
	if err != nil {
		return err
	}

	var gateway payments.Gateway
	if cfg.Stripe.Enabled() {
		stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return err
		}
		gateway, err = payments.NewStripeGateway(stripeClient)
		if err != nil {
			return err
		}
	} else {
		logg.Warn(ctx, "stripe.disabled orders will be marked paid at checkout")
	}

	notifier, err := notifications.NewOrderNotifier(mailer.New(cfg.Email, logg), cfg.Email.DefaultFrom)
	if err != nil {
		return err
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.Deps{
		Tx:        dbClient,
		Carts:     cartRepo,
		Orders:    ordersRepo,
		Addresses: addressService,
		Users:     userRepo,
		Converter: conv,
		Gateway:   gateway,
		Notifier:  notifier,
		Metrics:   checkoutMetrics,
		Logger:    logg,
	}, checkoutsvc.Options{
		MinimumAmount:     cfg.Checkout.MinimumAmount,
		ClearPromo:        cfg.Checkout.ClearPromo,
		FailOnNotifyError: cfg.Email.FailOnError,
	})
	if err != nil {
		return err
	}

	handler := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:          dbClient,
		Redis:       redisClient,
		Sessions:    sessionManager,
		Auth:        authService,
		Register:    registerService,
		Catalog:     catalogService,
		Cart:        cartService,
		Checkout:    checkoutService,
		Orders:      ordersService,
		Address:     addressService,
		Gatherer:    registry,
		HTTPMetrics: httpMetrics,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"dialect": dbClient.Dialect(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
