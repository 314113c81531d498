package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rendasua/settlement-backend/api/routes"
	"github.com/rendasua/settlement-backend/internal/accounts"
	"github.com/rendasua/settlement-backend/internal/appconfig"
	"github.com/rendasua/settlement-backend/internal/commission"
	"github.com/rendasua/settlement-backend/internal/orders"
	"github.com/rendasua/settlement-backend/internal/partners"
	"github.com/rendasua/settlement-backend/internal/users"
	"github.com/rendasua/settlement-backend/pkg/config"
	"github.com/rendasua/settlement-backend/pkg/db"
	"github.com/rendasua/settlement-backend/pkg/logger"
	"github.com/rendasua/settlement-backend/pkg/metrics"
	"github.com/rendasua/settlement-backend/pkg/migrate"
	"github.com/rendasua/settlement-backend/pkg/pubsub"
	"github.com/rendasua/settlement-backend/pkg/redis"
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	registry := prometheus.NewRegistry()
	payoutMetrics := metrics.NewPayoutMetrics(registry)

	appConfigService, err := appconfig.NewService(appconfig.NewRepository(dbClient.DB()), cfg.Commission)
	if err != nil {
		logg.Error(context.Background(), "failed to create app config service", err)
		os.Exit(1)
	}

	accountsService, err := accounts.NewService(accounts.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create accounts service", err)
		os.Exit(1)
	}

	commissionService, err := commission.NewService(commission.ServiceParams{
		Repo:      commission.NewRepository(dbClient.DB()),
		Orders:    orders.NewRepository(dbClient.DB()),
		Accounts:  accountsService,
		Partners:  partners.NewRepository(dbClient.DB()),
		AppConfig: appConfigService,
		Users:     users.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Locker:    redisClient,
		Logger:    logg,
		Metrics:   payoutMetrics,

		PlatformAccountEmail:            cfg.Commission.PlatformAccountEmail,
		LockTTL:                         cfg.Commission.LockTTL,
		WarnOnNegativePlatformRemainder: cfg.Commission.WarnOnNegativePlatformRemainder,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create commission service", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, pubsubClient, commissionService, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
