package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shop-backend/api/controllers"
	"github.com/angelmondragon/shop-backend/api/middleware"
	"github.com/angelmondragon/shop-backend/internal/address"
	"github.com/angelmondragon/shop-backend/internal/auth"
	"github.com/angelmondragon/shop-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/shop-backend/internal/checkout"
	"github.com/angelmondragon/shop-backend/internal/orders"
	product "github.com/angelmondragon/shop-backend/internal/products"
	"github.com/angelmondragon/shop-backend/pkg/auth/session"
	"github.com/angelmondragon/shop-backend/pkg/config"
	"github.com/angelmondragon/shop-backend/pkg/enums"
	"github.com/angelmondragon/shop-backend/pkg/logger"
	"github.com/angelmondragon/shop-backend/pkg/metrics"
	"github.com/angelmondragon/shop-backend/pkg/redis"
)

// Dependencies is everything the HTTP surface calls into. Nil services make their
// handlers answer INTERNAL_ERROR; a nil Redis disables rate limiting and idempotency.
type Dependencies struct {
	DB       controllers.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker

	Auth     auth.Service
	Register auth.RegisterService
	Catalog  product.Service
	Cart     cart.Service
	Checkout checkoutsvc.Service
	Orders   orders.Service
	Address  address.Service

	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg, deps.HTTPMetrics),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg, deps.HTTPMetrics),
	)

	loginLimit := passThrough
	registerLimit := passThrough
	idempotent := passThrough
	if deps.Redis != nil {
		loginLimit = middleware.AuthRateLimit(middleware.LoginThrottle(cfg.AuthRateLimit), deps.Redis, logg)
		registerLimit = middleware.AuthRateLimit(middleware.RegisterThrottle(cfg.AuthRateLimit), deps.Redis, logg)
		idempotent = middleware.Idempotency(deps.Redis, logg)
	}

	var redisPinger controllers.Pinger
	if deps.Redis != nil {
		redisPinger = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": redisPinger,
		}, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// public
	r.With(registerLimit).Post("/register/", controllers.AuthRegister(deps.Register, logg))
	r.With(loginLimit).Post("/auth/login/", controllers.AuthLogin(deps.Auth, logg))
	r.Get("/products/", controllers.ProductList(deps.Catalog, logg))
	r.Get("/products/{productID}/", controllers.ProductDetail(deps.Catalog, logg))
	r.Get("/categories/", controllers.CategoryList(deps.Catalog, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(idempotent)

		r.Post("/auth/logout/", controllers.AuthLogout(deps.Auth, logg))
		r.Get("/profile/", controllers.Profile(deps.Auth, logg))

		r.Get("/cart/", controllers.CartGet(deps.Cart, logg))
		r.Post("/cart/add/", controllers.CartAdd(deps.Cart, logg))
		r.Post("/cart/apply-promo/", controllers.CartApplyPromo(deps.Cart, logg))
		r.Post("/cart/checkout/", controllers.Checkout(deps.Checkout, logg))

		r.Get("/orders/", controllers.OrderList(deps.Orders, logg))
		r.Get("/orders/{orderID}/", controllers.OrderDetail(deps.Orders, logg))
		r.Post("/api/fake-payment/", controllers.FakePayment(deps.Orders, logg))

		r.Get("/addresses/", controllers.AddressList(deps.Address, logg))
		r.Post("/addresses/", controllers.AddressCreate(deps.Address, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleManager))
			r.Post("/products/", controllers.ProductCreate(deps.Catalog, logg))
			r.Patch("/products/{productID}/", controllers.ProductUpdate(deps.Catalog, logg))
			r.Delete("/products/{productID}/", controllers.ProductDelete(deps.Catalog, logg))
			r.Post("/categories/", controllers.CategoryCreate(deps.Catalog, logg))
			r.Delete("/categories/{categoryID}/", controllers.CategoryDelete(deps.Catalog, logg))
		})
	})

	return r
}

func passThrough(next http.Handler) http.Handler {
	return next
}
