package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopora/shopora-backend/api/controllers"
	cartcontrollers "github.com/shopora/shopora-backend/api/controllers/cart"
	discountcontrollers "github.com/shopora/shopora-backend/api/controllers/discount"
	walletcontrollers "github.com/shopora/shopora-backend/api/controllers/wallet"
	"github.com/shopora/shopora-backend/api/middleware"
	cartsvc "github.com/shopora/shopora-backend/internal/cart"
	discountsvc "github.com/shopora/shopora-backend/internal/discount"
	walletsvc "github.com/shopora/shopora-backend/internal/wallet"
	"github.com/shopora/shopora-backend/pkg/config"
	"github.com/shopora/shopora-backend/pkg/db"
	"github.com/shopora/shopora-backend/pkg/logger"
	"github.com/shopora/shopora-backend/pkg/metrics"
	"github.com/shopora/shopora-backend/pkg/redis"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
	Carts       cartsvc.Service
	Discounts   discountsvc.Service
	Wallets     walletsvc.Service
}

// NewRouter wires middleware and mounts the API surface.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.Cart.AnonymousToken),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadinessDeps(deps.DB, deps.Redis)))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	discountPolicy := middleware.NewRateLimitPolicy(
		"discount",
		cfg.RateLimit.DiscountWindow,
		cfg.RateLimit.DiscountIPLimit,
		cfg.RateLimit.DiscountLimit,
	)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.CartIdentity(cfg.JWT, cfg.Cart.AnonymousToken, logg))

		r.Get("/", cartcontrollers.Fetch(deps.Carts, logg))
		r.Post("/items", cartcontrollers.AddItem(deps.Carts, logg))
		r.Put("/items", cartcontrollers.SetQuantity(deps.Carts, logg))
		r.Delete("/items", cartcontrollers.RemoveItem(deps.Carts, logg))
		r.Post("/clear", cartcontrollers.Clear(deps.Carts, logg))
		r.With(middleware.RateLimit(discountPolicy, deps.Redis, logg)).
			Post("/discount", cartcontrollers.ApplyDiscount(deps.Carts, logg))
		r.Delete("/discount", cartcontrollers.ClearDiscount(deps.Carts, logg))
	})

	r.With(middleware.Auth(cfg.JWT, logg)).
		Post("/api/v1/cart/merge", cartcontrollers.Merge(deps.Carts, logg))

	r.With(middleware.RateLimit(discountPolicy, deps.Redis, logg)).
		Post("/api/v1/discounts/preview", discountcontrollers.Preview(deps.Discounts, logg))

	r.Route("/api/v1/wallet", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/", walletcontrollers.Fetch(deps.Wallets, logg))
		r.Get("/transactions", walletcontrollers.ListTransactions(deps.Wallets, logg))
		r.Post("/credits", walletcontrollers.Credit(deps.Wallets, logg))
		r.Post("/debits", walletcontrollers.Debit(deps.Wallets, logg))
		r.Post("/lock", walletcontrollers.Lock(deps.Wallets, logg))
		r.Post("/unlock", walletcontrollers.Unlock(deps.Wallets, logg))
	})

	return r
}
