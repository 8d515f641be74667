package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spooltrack/spooltrack-backend/api/controllers"
	"github.com/spooltrack/spooltrack-backend/api/middleware"
	"github.com/spooltrack/spooltrack-backend/internal/auth"
	"github.com/spooltrack/spooltrack-backend/internal/brands"
	"github.com/spooltrack/spooltrack-backend/internal/notifications"
	"github.com/spooltrack/spooltrack-backend/internal/prints"
	"github.com/spooltrack/spooltrack-backend/internal/spools"
	"github.com/spooltrack/spooltrack-backend/pkg/auth/session"
	"github.com/spooltrack/spooltrack-backend/pkg/config"
	"github.com/spooltrack/spooltrack-backend/pkg/db"
	"github.com/spooltrack/spooltrack-backend/pkg/logger"
	"github.com/spooltrack/spooltrack-backend/pkg/metrics"
	"github.com/spooltrack/spooltrack-backend/pkg/redis"
)

// Deps carries everything the router mounts. Nil services surface as 500s on
// their endpoints instead of panics at wire time.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionChecker session.AccessSessionChecker
	HTTPMetrics    *metrics.HTTPMetrics
	Registry       *prometheus.Registry

	AuthService          auth.Service
	RegisterService      auth.RegisterService
	SpoolsService        spools.Service
	BrandsService        brands.Service
	PrintsService        prints.Service
	NotificationsService notifications.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(),
	)

	// Assign through the interface only when non-nil so the middleware's nil
	// check still short-circuits when redis is absent.
	var idempotencyStore redis.IdempotencyStore
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginIdentityLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterIdentityLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).
			Post("/register", controllers.AuthRegister(deps.RegisterService, deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/spools", func(r chi.Router) {
			r.Get("/", controllers.SpoolList(deps.SpoolsService, logg))
			r.Post("/", controllers.SpoolCreate(deps.SpoolsService, logg))
			r.Put("/{spoolId}", controllers.SpoolUpdate(deps.SpoolsService, logg))
			r.Patch("/{spoolId}/remaining", controllers.SpoolAdjustRemaining(deps.SpoolsService, logg))
			r.Delete("/{spoolId}", controllers.SpoolDelete(deps.SpoolsService, logg))
		})

		r.Route("/brands", func(r chi.Router) {
			r.Get("/", controllers.BrandList(deps.BrandsService, logg))
			r.Post("/", controllers.BrandAdd(deps.BrandsService, logg))
			r.Delete("/{brand}", controllers.BrandRemove(deps.BrandsService, logg))
		})

		r.Route("/prints", func(r chi.Router) {
			r.Get("/", controllers.PrintList(deps.PrintsService, logg))
			r.Post("/", controllers.PrintRecord(deps.PrintsService, logg))
		})

		r.Get("/stats", controllers.SpoolStats(deps.SpoolsService, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.NotificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.NotificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.NotificationsService, logg))
		})
	})

	return r
}
