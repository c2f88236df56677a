package controllers

import (
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/dessy-cafe/storefront-backend/api/responses"
	"github.com/dessy-cafe/storefront-backend/pkg/config"
	"github.com/dessy-cafe/storefront-backend/pkg/db"
	pkgerrors "github.com/dessy-cafe/storefront-backend/pkg/errors"
	"github.com/dessy-cafe/storefront-backend/pkg/logger"
	"github.com/dessy-cafe/storefront-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Dessy-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks every hard dependency before reporting ready.
func HealthReady(cfg *config.Config, database db.Pinger, cache redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Dessy-Env", cfg.App.Env)

		ctx, cancel := timeoutContext(r, readinessTimeout)
		defer cancel()

		var err error
		if database != nil {
			err = multierr.Append(err, database.Ping(ctx))
		}
		if cache != nil {
			err = multierr.Append(err, cache.Ping(ctx))
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependencies unavailable"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
