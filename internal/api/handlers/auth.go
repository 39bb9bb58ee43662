package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/marmos91/aliasd/internal/api/auth"
	"github.com/marmos91/aliasd/internal/api/middleware"
	"github.com/marmos91/aliasd/internal/api/respond"
	"github.com/marmos91/aliasd/internal/logger"
	"github.com/marmos91/aliasd/pkg/models"
)

// UserService is the subset of *users.Service the auth endpoints need.
type UserService interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// CookieConfig describes the session cookie set on login.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// AuthHandler handles authentication-related API endpoints.
type AuthHandler struct {
	users      UserService
	jwtService *auth.JWTService
	cookie     CookieConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users UserService, jwtService *auth.JWTService, cookie CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "auth"
	}
	if cookie.MaxAge == 0 {
		cookie.MaxAge = jwtService.AccessTokenDuration()
	}
	return &AuthHandler{
		users:      users,
		jwtService: jwtService,
		cookie:     cookie,
	}
}

// LoginRequest is the request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response body for POST /api/v1/auth/login.
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         UserResponse `json:"user"`
}

// UserResponse is a sanitized user representation for API responses.
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// RefreshRequest is the request body for POST /api/v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login handles POST /api/v1/auth/login.
// Authenticates user credentials, returns a JWT token pair and sets the
// session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			logger.InfoCtx(r.Context(), "Login rejected", logger.KeyUsername, req.Username)
			respond.Error(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	response, ok := h.issue(w, user)
	if !ok {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    response.AccessToken,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	logger.InfoCtx(r.Context(), "User logged in", logger.KeyUsername, user.Username)
	respond.OK(w, response)
}

// Logout handles DELETE /api/v1/auth/login.
// Clears the session cookie. Requests without one are refused.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(h.cookie.Name); err != nil {
		respond.Error(w, http.StatusForbidden, "Not logged in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	respond.NoContent(w)
}

// Refresh handles POST /api/v1/auth/refresh.
// Returns a new token pair using a valid refresh token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.RefreshToken == "" {
		respond.Error(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			respond.Error(w, http.StatusUnauthorized, "Refresh token has expired")
			return
		}
		respond.Error(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	// Tokens of deleted users are not renewed.
	user, err := h.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			respond.Error(w, http.StatusUnauthorized, "User not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	response, ok := h.issue(w, user)
	if !ok {
		return
	}
	respond.OK(w, response)
}

// Me handles GET /api/v1/auth/me.
// Returns the current authenticated user's information.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		respond.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			respond.Error(w, http.StatusUnauthorized, "User not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	respond.OK(w, userToResponse(user))
}

func (h *AuthHandler) issue(w http.ResponseWriter, user *models.User) (*LoginResponse, bool) {
	tokenPair, err := h.jwtService.GenerateTokenPair(user)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "Failed to generate token")
		return nil, false
	}

	return &LoginResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		TokenType:    tokenPair.TokenType,
		ExpiresIn:    tokenPair.ExpiresIn,
		ExpiresAt:    tokenPair.ExpiresAt,
		User:         userToResponse(user),
	}, true
}

func userToResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
}
