package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/aliasd/internal/api/middleware"
	"github.com/marmos91/aliasd/internal/api/respond"
	"github.com/marmos91/aliasd/internal/logger"
	"github.com/marmos91/aliasd/pkg/alias"
	"github.com/marmos91/aliasd/pkg/models"
)

// AliasService is the subset of *alias.Service the handlers need.
type AliasService interface {
	Resolve(ctx context.Context, key string) (string, error)
	Upsert(ctx context.Context, key, destination string, owner uint) error
	Delete(ctx context.Context, key string, owner uint) error
	ListByOwner(ctx context.Context, owner uint) ([]*models.Alias, error)
}

// AliasHandler serves alias CRUD and the public redirect.
type AliasHandler struct {
	aliases AliasService
}

// NewAliasHandler creates a new AliasHandler.
func NewAliasHandler(aliases AliasService) *AliasHandler {
	return &AliasHandler{aliases: aliases}
}

// AliasRequest is the request body for POST /api/v1/aliases.
type AliasRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// AliasResponse is a single alias mapping.
type AliasResponse struct {
	Message string `json:"message,omitempty"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// Create handles POST /api/v1/aliases.
// Creates the alias, or replaces it and takes ownership when it exists.
func (h *AliasHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		respond.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req AliasRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := alias.ValidateKey(req.From); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	dest, err := alias.NormalizeDestination(req.To)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.aliases.Upsert(r.Context(), req.From, dest, claims.UserID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	respond.Created(w, AliasResponse{Message: "Added alias.", From: req.From, To: dest})
}

// List handles GET /api/v1/aliases.
// Returns the aliases owned by the caller.
func (h *AliasHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		respond.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	aliases, err := h.aliases.ListByOwner(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if aliases == nil {
		aliases = []*models.Alias{}
	}
	respond.OK(w, aliases)
}

// Get handles GET /api/v1/aliases/{alias}.
func (h *AliasHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "alias")

	dest, err := h.aliases.Resolve(r.Context(), key)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.OK(w, AliasResponse{From: key, To: dest})
}

// Delete handles DELETE /api/v1/aliases/{alias}.
// Only the owner can delete an alias.
func (h *AliasHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		respond.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	key := chi.URLParam(r, "alias")
	if err := h.aliases.Delete(r.Context(), key, claims.UserID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.NoContent(w)
}

// Redirect handles GET /{alias}.
// Answers 302 to the destination; unknown aliases get a plain JSON 404.
func (h *AliasHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "alias")

	if alias.ValidateKey(key) != nil {
		writeNoSuchAlias(w, key)
		return
	}

	dest, err := h.aliases.Resolve(r.Context(), key)
	if errors.Is(err, alias.ErrNotFound) {
		writeNoSuchAlias(w, key)
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logger.DebugCtx(r.Context(), "Redirecting", logger.KeyAlias, key, logger.KeyDestination, dest)
	w.Header().Set("Location", dest)
	respond.JSON(w, http.StatusFound, map[string]string{
		"message": "redirected",
		"to":      dest,
	})
}

func writeNoSuchAlias(w http.ResponseWriter, key string) {
	respond.JSON(w, http.StatusNotFound, map[string]string{
		"message": "No such alias",
		"alias":   key,
	})
}
