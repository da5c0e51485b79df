package controllers

import (
	"context"
	"net/http"

	"github.com/rohitnair-dev/storefront-backend/api/responses"
	pkgerrors "github.com/rohitnair-dev/storefront-backend/pkg/errors"
	"github.com/rohitnair-dev/storefront-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthController exposes liveness and readiness probes. Readiness fans out
// to the backing stores so the balancer stops routing before they fail hard.
type HealthController struct {
	logg    *logger.Logger
	pingers map[string]pinger
}

func NewHealthController(logg *logger.Logger, db pinger, cache pinger) *HealthController {
	pingers := map[string]pinger{}
	if db != nil {
		pingers["database"] = db
	}
	if cache != nil {
		pingers["cache"] = cache
	}
	return &HealthController{logg: logg, pingers: pingers}
}

func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, map[string]string{"status": "ok"})
}

func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]string{}
	healthy := true
	for name, p := range c.pingers {
		if err := p.Ping(ctx); err != nil {
			healthy = false
			checks[name] = "unavailable"
			if c.logg != nil {
				c.logg.Error(ctx, "health.check_failed", err)
			}
			continue
		}
		checks[name] = "ok"
	}

	if !healthy {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(
			pkgerrors.CodeDependency, "a required dependency is unavailable").WithDetails(checks))
		return
	}

	responses.WriteSuccess(w, map[string]any{"status": "ok", "checks": checks})
}
