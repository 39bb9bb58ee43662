package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/marmos91/aliasd/internal/api/respond"
	"github.com/marmos91/aliasd/pkg/actor"
)

// HealthCheckTimeout bounds the readiness ping through the actor.
const HealthCheckTimeout = 5 * time.Second

// HealthResponse is the body of both probes. Data is set when healthy and
// Error when not.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func healthy(data any) HealthResponse {
	return HealthResponse{Status: "healthy", Timestamp: time.Now().UTC(), Data: data}
}

func unhealthy(reason string) HealthResponse {
	return HealthResponse{Status: "unhealthy", Timestamp: time.Now().UTC(), Error: reason}
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	actor     actor.Submitter
	startTime time.Time
}

// NewHealthHandler creates a new health handler. A nil submitter makes the
// readiness probe fail.
func NewHealthHandler(submitter actor.Submitter) *HealthHandler {
	return &HealthHandler{
		actor:     submitter,
		startTime: time.Now(),
	}
}

// Liveness handles GET /health.
// Returns 200 OK as long as the HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	respond.OK(w, healthy(map[string]any{
		"service":    "aliasd",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready.
// Sends a ping through the connection actor so a dead worker or an
// unreachable store reports 503.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.actor == nil {
		respond.JSON(w, http.StatusServiceUnavailable, unhealthy("connection actor not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), HealthCheckTimeout)
	defer cancel()

	start := time.Now()
	if _, err := h.actor.Submit(ctx, actor.Command{Op: actor.OpPing}); err != nil {
		respond.JSON(w, http.StatusServiceUnavailable, unhealthy(err.Error()))
		return
	}

	respond.OK(w, healthy(map[string]any{
		"store":   "reachable",
		"latency": time.Since(start).String(),
	}))
}
