// Package middleware provides HTTP middleware for the aliasd API.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/marmos91/aliasd/internal/api/auth"
	"github.com/marmos91/aliasd/internal/api/respond"
	"github.com/marmos91/aliasd/internal/logger"
	"github.com/marmos91/aliasd/internal/telemetry"
	"github.com/marmos91/aliasd/pkg/actor"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// UserChecker reports whether the user behind a token still exists.
type UserChecker interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// AuthConfig configures where tokens are read from and how they are checked.
type AuthConfig struct {
	// CookieName is the session cookie consulted when no Authorization
	// header is present. Empty disables cookie auth.
	CookieName string

	// Users, when set, rejects tokens of users that were deleted after
	// the token was issued.
	Users UserChecker
}

// JWTAuth requires a valid access token, taken from the Authorization
// header or from the session cookie.
func JWTAuth(jwtService *auth.JWTService, cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := tokenFromRequest(r, cfg.CookieName)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				detail := "Invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					detail = "Token has expired"
				}
				respond.Error(w, http.StatusUnauthorized, detail)
				return
			}

			if cfg.Users != nil {
				exists, err := cfg.Users.Exists(r.Context(), claims.UserID)
				switch {
				case errors.Is(err, actor.ErrActorUnavailable), errors.Is(err, actor.ErrQueueFull):
					respond.Error(w, http.StatusServiceUnavailable, "Storage is unavailable")
					return
				case err != nil:
					logger.ErrorCtx(r.Context(), "User lookup failed during authentication",
						logger.KeyOwnerID, claims.UserID, logger.KeyError, err)
					respond.Error(w, http.StatusInternalServerError, "Authentication failed")
					return
				case !exists:
					respond.Error(w, http.StatusUnauthorized, "User no longer exists")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalJWTAuth attaches the claims of a valid access token when one is
// present and never rejects the request.
func OptionalJWTAuth(jwtService *auth.JWTService, cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := tokenFromRequest(r, cfg.CookieName); ok {
				if claims, err := jwtService.ValidateAccessToken(token); err == nil {
					r = r.WithContext(withClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaimsFromContext returns the claims stored by JWTAuth, or nil.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

func withClaims(ctx context.Context, claims *auth.Claims) context.Context {
	if lc := logger.FromContext(ctx); lc != nil {
		ctx = logger.WithContext(ctx, lc.WithUser(claims.UserID, claims.Username))
	}
	telemetry.SetAttributes(ctx, telemetry.UserID(claims.UserID), telemetry.Username(claims.Username))
	return context.WithValue(ctx, claimsContextKey, claims)
}

func tokenFromRequest(r *http.Request, cookieName string) (string, bool) {
	if token, ok := extractBearerToken(r); ok {
		return token, true
	}
	if cookieName == "" {
		return "", false
	}
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// extractBearerToken returns the token of an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
