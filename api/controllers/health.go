package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mgiraldodev/templaria-backend/api/responses"
	"github.com/mgiraldodev/templaria-backend/pkg/config"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

// ReadinessDependency names one pingable backend for the ready probe.
type ReadinessDependency struct {
	Name   string
	Pinger interface {
		Ping(ctx context.Context) error
	}
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Templaria-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every registered backend and fails the probe on the
// first dependency that does not answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...ReadinessDependency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Templaria-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		for _, dep := range deps {
			if dep.Pinger == nil {
				continue
			}
			if err := dep.Pinger.Ping(ctx); err != nil {
				if logg != nil {
					logg.Error(ctx, "readiness check failed: "+dep.Name, err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, dep.Name+" unavailable"))
				return
			}
			checks[dep.Name] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{
			"status": "ready",
			"checks": checks,
		})
	}
}
