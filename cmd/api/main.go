package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shopora/shopora-backend/api/routes"
	cartsvc "github.com/shopora/shopora-backend/internal/cart"
	discountsvc "github.com/shopora/shopora-backend/internal/discount"
	walletsvc "github.com/shopora/shopora-backend/internal/wallet"
	"github.com/shopora/shopora-backend/pkg/config"
	"github.com/shopora/shopora-backend/pkg/db"
	"github.com/shopora/shopora-backend/pkg/enums"
	"github.com/shopora/shopora-backend/pkg/logger"
	"github.com/shopora/shopora-backend/pkg/metrics"
	"github.com/shopora/shopora-backend/pkg/migrate"
	"github.com/shopora/shopora-backend/pkg/redis"
)

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

	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}

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

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	domainMetrics := metrics.NewDomainMetrics(registry)

	cartCurrency, err := enums.ParseCurrency(cfg.Cart.Currency)
	if err != nil {
		logg.Error(context.Background(), "invalid cart currency", err)
		os.Exit(1)
	}
	walletCurrency, err := enums.ParseCurrency(cfg.Wallet.Currency)
	if err != nil {
		logg.Error(context.Background(), "invalid wallet currency", err)
		os.Exit(1)
	}

	discountRepo := discountsvc.NewCachedRepository(
		discountsvc.NewRepository(dbClient.DB()), redisClient, cfg.Redis.DiscountCodeTTL)
	discountService, err := discountsvc.NewService(discountRepo, domainMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create discount service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartsvc.ServiceParams{
		Repo:        cartsvc.NewRepository(dbClient.DB()),
		Tx:          dbClient,
		Discounts:   discountService,
		Currency:    cartCurrency,
		MaxQuantity: cfg.Cart.MaxQuantity,
		Metrics:     domainMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	walletService, err := walletsvc.NewService(walletsvc.ServiceParams{
		Repo:     walletsvc.NewRepository(dbClient.DB()),
		Tx:       dbClient,
		Currency: walletCurrency,
		PageSize: cfg.Wallet.PageSize,
		Metrics:  domainMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			HTTPMetrics: httpMetrics,
			Gatherer:    registry,
			Carts:       cartService,
			Discounts:   discountService,
			Wallets:     walletService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
