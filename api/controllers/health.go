package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/rendasua/settlement-backend/api/responses"
	"github.com/rendasua/settlement-backend/pkg/config"
	pkgerrors "github.com/rendasua/settlement-backend/pkg/errors"
	"github.com/rendasua/settlement-backend/pkg/logger"
)

const envHeader = "X-RendaSua-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies every dependency the settlement path touches. Nil
// pingers are skipped so the API and worker can share this handler.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP, pubsubP pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]pinger{
			"database": dbP,
			"redis":    redisP,
			"pubsub":   pubsubP,
		}
		for name, p := range checks {
			if p == nil {
				continue
			}
			if err := p.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
