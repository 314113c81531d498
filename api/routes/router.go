package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rendasua/settlement-backend/api/controllers"
	"github.com/rendasua/settlement-backend/api/middleware"
	"github.com/rendasua/settlement-backend/internal/commission"
	"github.com/rendasua/settlement-backend/pkg/config"
	"github.com/rendasua/settlement-backend/pkg/db"
	"github.com/rendasua/settlement-backend/pkg/logger"
	"github.com/rendasua/settlement-backend/pkg/pubsub"
	"github.com/rendasua/settlement-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	pubsubClient *pubsub.Client,
	commissionService commission.Service,
	metricsRegistry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, pubsubClient))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/orders/{orderId}/commissions", func(r chi.Router) {
		r.Post("/distribute", controllers.DistributeCommissions(commissionService, logg))
		r.Get("/preview", controllers.PreviewCommissions(commissionService, logg))
		r.Get("/payouts", controllers.ListCommissionPayouts(commissionService, logg))
	})

	return r
}
