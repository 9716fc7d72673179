package handler

import (
	"context"
	"net/http"
	"time"
)

// readyzTimeout bounds the whole readiness sweep so a hung dependency
// cannot pin probe connections open.
const readyzTimeout = 5 * time.Second

// HealthChecker reports whether a backing service is reachable.
// Both pgxpool.Pool and the redis client satisfy it via Ping.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// dependency is one named entry in the readiness sweep.
type dependency struct {
	name  string
	check HealthChecker
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	deps []dependency
}

// NewHealthHandler wires the readiness dependencies. A nil checker is
// reported as skipped rather than failing the probe, so the API can
// come up before optional services do.
func NewHealthHandler(db, cache HealthChecker) *HealthHandler {
	return &HealthHandler{
		deps: []dependency{
			{name: "postgres", check: db},
			{name: "redis", check: cache},
		},
	}
}

// HealthResponse is the body of both probe endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz reports process liveness only. It must not touch any
// dependency: a dead database should drain the pod from the load
// balancer, not restart it.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz pings every dependency and reports 503 if any fails, which
// takes the pod out of rotation until the dependency recovers.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.deps))
	ready := true
	for _, dep := range h.deps {
		switch {
		case dep.check == nil:
			checks[dep.name] = "skipped"
		case ctx.Err() != nil:
			checks[dep.name] = "error: " + ctx.Err().Error()
			ready = false
		default:
			if err := dep.check.Ping(ctx); err != nil {
				checks[dep.name] = "error: " + err.Error()
				ready = false
			} else {
				checks[dep.name] = "ok"
			}
		}
	}

	status, code := "ok", http.StatusOK
	if !ready {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{Status: status, Checks: checks})
}
