package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marmos91/aliasd/internal/api/auth"
	"github.com/marmos91/aliasd/internal/logger"
	"github.com/marmos91/aliasd/pkg/actor"
	"github.com/marmos91/aliasd/pkg/models"
)

func createTestJWTService(t *testing.T, access time.Duration) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:              "test-secret-key-that-is-at-least-32-characters-long",
		Issuer:              "test",
		AccessTokenDuration: access,
	})
	if err != nil {
		t.Fatalf("failed to create JWT service: %v", err)
	}
	return svc
}

type fakeUsers struct {
	exists bool
	err    error
	calls  int
}

func (f *fakeUsers) Exists(_ context.Context, _ uint) (bool, error) {
	f.calls++
	return f.exists, f.err
}

// echoClaims replies 200 with the authenticated username, or "anonymous".
func echoClaims() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaimsFromContext(r.Context())
		if claims == nil {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(claims.Username))
	})
}

func TestGetClaimsFromContext(t *testing.T) {
	t.Run("no claims in context", func(t *testing.T) {
		if GetClaimsFromContext(context.Background()) != nil {
			t.Error("expected nil claims for empty context")
		}
	})

	t.Run("claims present in context", func(t *testing.T) {
		expected := &auth.Claims{UserID: 123, Username: "testuser"}
		ctx := context.WithValue(context.Background(), claimsContextKey, expected)
		claims := GetClaimsFromContext(ctx)
		if claims == nil {
			t.Fatal("expected claims to be present")
		}
		if claims.UserID != expected.UserID {
			t.Errorf("expected UserID %d, got %d", expected.UserID, claims.UserID)
		}
	})

	t.Run("wrong type in context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), claimsContextKey, "not-claims")
		if GetClaimsFromContext(ctx) != nil {
			t.Error("expected nil claims for wrong type")
		}
	})
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name        string
		authHeader  string
		wantToken   string
		wantSuccess bool
	}{
		{"empty header", "", "", false},
		{"bearer token", "Bearer abc123", "abc123", true},
		{"bearer lowercase", "bearer abc123", "abc123", true},
		{"BEARER uppercase", "BEARER abc123", "abc123", true},
		{"missing token", "Bearer", "", false},
		{"only whitespace", "Bearer    ", "", false},
		{"wrong scheme", "Basic abc123", "", false},
		{"no space", "Bearerabc123", "", false},
		{"token with spaces", "Bearer token with spaces", "token with spaces", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			token, ok := extractBearerToken(req)
			if ok != tt.wantSuccess {
				t.Errorf("extractBearerToken() success = %v, want %v", ok, tt.wantSuccess)
			}
			if token != tt.wantToken {
				t.Errorf("extractBearerToken() token = %q, want %q", token, tt.wantToken)
			}
		})
	}
}

func TestJWTAuth(t *testing.T) {
	svc := createTestJWTService(t, time.Hour)
	pair, err := svc.GenerateTokenPair(&models.User{ID: 1, Username: "alice"})
	if err != nil {
		t.Fatalf("failed to generate tokens: %v", err)
	}

	expiredSvc := createTestJWTService(t, -time.Minute)
	expired, _ := expiredSvc.GenerateTokenPair(&models.User{ID: 1, Username: "alice"})

	tests := []struct {
		name       string
		header     string
		cookie     string
		users      *fakeUsers
		wantStatus int
		wantBody   string
	}{
		{"bearer header", "Bearer " + pair.AccessToken, "", nil, http.StatusOK, "alice"},
		{"session cookie", "", pair.AccessToken, nil, http.StatusOK, "alice"},
		{"no credentials", "", "", nil, http.StatusUnauthorized, ""},
		{"refresh token rejected", "Bearer " + pair.RefreshToken, "", nil, http.StatusUnauthorized, ""},
		{"garbage token", "Bearer nope", "", nil, http.StatusUnauthorized, ""},
		{"expired token", "Bearer " + expired.AccessToken, "", nil, http.StatusUnauthorized, ""},
		{"existing user", "Bearer " + pair.AccessToken, "", &fakeUsers{exists: true}, http.StatusOK, "alice"},
		{"deleted user", "Bearer " + pair.AccessToken, "", &fakeUsers{exists: false}, http.StatusUnauthorized, ""},
		{"actor unavailable", "Bearer " + pair.AccessToken, "", &fakeUsers{err: actor.ErrActorUnavailable}, http.StatusServiceUnavailable, ""},
		{"storage failure", "Bearer " + pair.AccessToken, "", &fakeUsers{err: errors.New("disk on fire")}, http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AuthConfig{CookieName: "auth"}
			if tt.users != nil {
				cfg.Users = tt.users
			}

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "auth", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()

			JWTAuth(svc, cfg)(echoClaims()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, rec.Body.String())
			}
			if rec.Code != http.StatusOK && rec.Header().Get("Content-Type") != "application/problem+json" {
				t.Errorf("expected problem+json, got %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestJWTAuth_CookieDisabled(t *testing.T) {
	svc := createTestJWTService(t, time.Hour)
	pair, _ := svc.GenerateTokenPair(&models.User{ID: 1, Username: "alice"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth", Value: pair.AccessToken})
	rec := httptest.NewRecorder()

	JWTAuth(svc, AuthConfig{})(echoClaims()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with cookie auth disabled, got %d", rec.Code)
	}
}

func TestJWTAuth_AttachesUserToLogContext(t *testing.T) {
	svc := createTestJWTService(t, time.Hour)
	pair, _ := svc.GenerateTokenPair(&models.User{ID: 9, Username: "carol"})

	var got *logger.LogContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = logger.FromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	req = req.WithContext(logger.WithContext(req.Context(), logger.NewLogContext("10.0.0.1")))

	JWTAuth(svc, AuthConfig{})(next).ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected a log context")
	}
	if got.UserID != 9 || got.Username != "carol" {
		t.Errorf("expected user carol/9 in log context, got %s/%d", got.Username, got.UserID)
	}
}

func TestOptionalJWTAuth(t *testing.T) {
	svc := createTestJWTService(t, time.Hour)
	pair, _ := svc.GenerateTokenPair(&models.User{ID: 1, Username: "alice"})

	for name, tc := range map[string]struct {
		header string
		want   string
	}{
		"valid token":   {"Bearer " + pair.AccessToken, "alice"},
		"invalid token": {"Bearer nope", "anonymous"},
		"no token":      {"", "anonymous"},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			OptionalJWTAuth(svc, AuthConfig{})(echoClaims()).ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if rec.Body.String() != tc.want {
				t.Errorf("expected %q, got %q", tc.want, rec.Body.String())
			}
		})
	}
}
