package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marmos91/aliasd/internal/api/respond"
	"github.com/marmos91/aliasd/internal/logger"
	"github.com/marmos91/aliasd/pkg/actor"
	"github.com/marmos91/aliasd/pkg/alias"
	"github.com/marmos91/aliasd/pkg/models"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns true if successful, false if decoding fails (error response is written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeServiceError maps alias, user and actor errors onto problem responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, alias.ErrNotFound),
		errors.Is(err, alias.ErrNotFoundOrNotOwned),
		errors.Is(err, models.ErrUserNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, alias.ErrInvalidAlias), errors.Is(err, alias.ErrInvalidDestination):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, actor.ErrActorUnavailable), errors.Is(err, actor.ErrQueueFull):
		respond.Error(w, http.StatusServiceUnavailable, "Storage is unavailable, retry later")
	case errors.Is(err, context.DeadlineExceeded):
		respond.Error(w, http.StatusGatewayTimeout, "Storage did not answer in time")
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads a response.
		logger.DebugCtx(r.Context(), "Request abandoned by client",
			logger.KeyPath, r.URL.Path,
			logger.KeyError, err)
	default:
		logger.ErrorCtx(r.Context(), "Request failed",
			logger.KeyPath, r.URL.Path,
			logger.KeyError, err)
		respond.Error(w, http.StatusInternalServerError, "An internal error occurred")
	}
}
