package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/aliasd/internal/api/auth"
	"github.com/marmos91/aliasd/internal/api/handlers"
	apiMiddleware "github.com/marmos91/aliasd/internal/api/middleware"
	"github.com/marmos91/aliasd/internal/logger"
	"github.com/marmos91/aliasd/internal/telemetry"
	"github.com/marmos91/aliasd/pkg/actor"
)

// Services are the collaborators behind the HTTP routes.
type Services struct {
	Aliases handlers.AliasService
	Users   UserService
	// Actor backs the readiness probe.
	Actor actor.Submitter
}

// UserService is what the router needs from *users.Service.
type UserService interface {
	handlers.UserService
	apiMiddleware.UserChecker
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe (pings the store through the actor)
//   - POST /api/v1/auth/login - User authentication, sets the session cookie
//   - DELETE /api/v1/auth/login - Clears the session cookie
//   - POST /api/v1/auth/refresh - Token refresh
//   - GET /api/v1/auth/me - Current user info
//   - POST /api/v1/aliases - Create or replace an alias
//   - GET /api/v1/aliases - List own aliases
//   - GET /api/v1/aliases/{alias} - Look up an alias
//   - DELETE /api/v1/aliases/{alias} - Delete an owned alias
//   - GET /{alias} - Redirect
func NewRouter(svc Services, jwtService *auth.JWTService, jwtCfg JWTConfig) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestContext)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	authCfg := apiMiddleware.AuthConfig{CookieName: jwtCfg.CookieName, Users: svc.Users}
	requireAuth := apiMiddleware.JWTAuth(jwtService, authCfg)

	healthHandler := handlers.NewHealthHandler(svc.Actor)
	authHandler := handlers.NewAuthHandler(svc.Users, jwtService, handlers.CookieConfig{
		Name:   jwtCfg.CookieName,
		Secure: jwtCfg.SecureCookie,
		MaxAge: jwtCfg.AccessTokenDuration,
	})
	aliasHandler := handlers.NewAliasHandler(svc.Aliases)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Delete("/login", authHandler.Logout)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
			})
		})

		r.Route("/aliases", func(r chi.Router) {
			r.Get("/{alias}", aliasHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", aliasHandler.Create)
				r.Get("/", aliasHandler.List)
				r.Delete("/{alias}", aliasHandler.Delete)
			})
		})
	})

	r.Get("/{alias}", aliasHandler.Redirect)

	return r
}

// requestContext attaches a LogContext and a server span to every request.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := telemetry.StartSpan(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
				telemetry.ClientIP(clientIP(r)),
			))
		defer span.End()

		lc := logger.NewLogContext(clientIP(r)).
			WithRequestID(middleware.GetReqID(ctx)).
			WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
		ctx = logger.WithContext(ctx, lc)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", ww.Status()))
		if ww.Status() >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(ww.Status()))
		}
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		logger.DebugCtx(r.Context(), "API request started",
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logArgs := []any{
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, ww.Status(),
			logger.KeyBytes, ww.BytesWritten(),
			logger.KeyDurationMs, logger.Duration(start),
		}

		// Health probes are polled constantly
		if isHealthPath(r.URL.Path) {
			logger.DebugCtx(r.Context(), "API request completed", logArgs...)
		} else {
			logger.InfoCtx(r.Context(), "API request completed", logArgs...)
		}
	})
}

func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// clientIP strips the port from RemoteAddr, which RealIP may already have
// replaced with a bare address.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
