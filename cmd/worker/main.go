package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rendasua/settlement-backend/internal/accounts"
	"github.com/rendasua/settlement-backend/internal/appconfig"
	"github.com/rendasua/settlement-backend/internal/commission"
	consumers "github.com/rendasua/settlement-backend/internal/consumers/orders"
	"github.com/rendasua/settlement-backend/internal/orders"
	"github.com/rendasua/settlement-backend/internal/partners"
	"github.com/rendasua/settlement-backend/internal/users"
	"github.com/rendasua/settlement-backend/pkg/config"
	"github.com/rendasua/settlement-backend/pkg/db"
	"github.com/rendasua/settlement-backend/pkg/logger"
	"github.com/rendasua/settlement-backend/pkg/metrics"
	"github.com/rendasua/settlement-backend/pkg/pubsub"
	"github.com/rendasua/settlement-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database client", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	payoutMetrics := metrics.NewPayoutMetrics(prometheus.NewRegistry())

	appConfigService, err := appconfig.NewService(appconfig.NewRepository(dbClient.DB()), cfg.Commission)
	requireResource(ctx, logg, "app config service", err)

	accountsService, err := accounts.NewService(accounts.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "accounts service", err)

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
	requireResource(ctx, logg, "commission service", err)

	subscription := pubsubClient.OrderEventsSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "order events subscription", errors.New("subscription not configured"))
	}

	orderConsumer, err := consumers.NewConsumer(commissionService, subscription, logg)
	requireResource(ctx, logg, "order consumer", err)

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Redis:         redisClient,
		PubSub:        pubsubClient,
		OrderConsumer: orderConsumer,
	})
	requireResource(ctx, logg, "worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{"env": cfg.App.Env})
	logg.Info(runCtx, "settlement worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "settlement worker failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
