package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/debugly/debugly-backend/api/controllers"
	"github.com/debugly/debugly-backend/api/middleware"
	"github.com/debugly/debugly-backend/internal/auth"
	"github.com/debugly/debugly-backend/internal/debugger"
	"github.com/debugly/debugly-backend/internal/history"
	"github.com/debugly/debugly-backend/internal/profiles"
	"github.com/debugly/debugly-backend/internal/subscriptions"
	"github.com/debugly/debugly-backend/pkg/auth/session"
	"github.com/debugly/debugly-backend/pkg/config"
	"github.com/debugly/debugly-backend/pkg/logger"
	"github.com/debugly/debugly-backend/pkg/redis"
)

type dbPinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             dbPinger
	Redis          *redis.Client
	SessionChecker session.AccessSessionChecker

	AuthService         auth.Service
	RegisterService     auth.RegisterService
	DebugService        debugger.Service
	HistoryService      history.Service
	ProfileService      profiles.Service
	SubscriptionService subscriptions.Service
}

// NewRouter builds the chi router with both API surfaces: the legacy
// /functions/v1 endpoints the existing frontend calls, and the enveloped
// /api/v1 routes.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	var redisPinger dbPinger
	if deps.Redis != nil {
		redisPinger = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, redisPinger, logg))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.RegisterService, deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, deps.SessionChecker, logg)).Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	// Legacy surface. The paths and the flat JSON shapes match the edge
	// functions the frontend already speaks to.
	r.Route("/functions/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
			r.Post("/debug-code", controllers.DebugCode(deps.DebugService, logg))
			r.Post("/subscription", controllers.Subscription(deps.SubscriptionService, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))

		r.Post("/debug", controllers.DebugCode(deps.DebugService, logg))

		r.Route("/history", func(r chi.Router) {
			r.Get("/", controllers.HistoryList(deps.HistoryService, logg))
			r.Get("/{id}", controllers.HistoryGet(deps.HistoryService, logg))
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(deps.ProfileService, logg))
			r.Put("/", controllers.ProfileUpdate(deps.ProfileService, logg))
		})
	})

	return r
}
