package apiclient

import (
	"net/http"
	"time"
)

// HealthResponse is the envelope of /health and /health/ready.
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Health calls the liveness probe.
func (c *Client) Health() (*HealthResponse, error) {
	return call[HealthResponse](c, http.MethodGet, healthPath, nil)
}

// Ready calls the readiness probe, which pings the store. An unready server
// is returned as an *APIError with status 503.
func (c *Client) Ready() (*HealthResponse, error) {
	return call[HealthResponse](c, http.MethodGet, readyPath, nil)
}
