package controllers

import (
	"context"
	"net/http"

	"github.com/verdeleaf/storefront-backend/api/responses"
	"github.com/verdeleaf/storefront-backend/pkg/config"
	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
)

const envHeader = "X-Verdeleaf-Env"

// Pinger is implemented by every backing dependency the readiness
// endpoint reports on.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency and reports per-component state.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		components := map[string]string{}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				components[name] = "not configured"
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				components[name] = err.Error()
				healthy = false
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "component", name), "readiness check failed", err)
				}
				continue
			}
			components[name] = "ok"
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(components))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "components": components})
	}
}
