// Package api provides the HTTP API for the LinkStream server.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/linkstream/linkstream/docs/api"
	"github.com/linkstream/linkstream/internal/api/handlers"
	"github.com/linkstream/linkstream/internal/api/middleware"
	"github.com/linkstream/linkstream/internal/auth"
	"github.com/linkstream/linkstream/internal/billing"
	"github.com/linkstream/linkstream/internal/config"
	"github.com/linkstream/linkstream/internal/db"
	"github.com/linkstream/linkstream/internal/metering"
	"github.com/linkstream/linkstream/internal/storage"
	"github.com/linkstream/linkstream/internal/teams"
)

// maxJSONBodyBytes caps request bodies. Export archives never pass
// through the API; they go straight to object storage.
const maxJSONBodyBytes = 1 << 20

// Config holds configuration for the API router.
type Config struct {
	Environment config.Environment
	// BaseURL is the public URL of the application, used in redirects
	// and outbound links.
	BaseURL string
	// AllowedOrigins for CORS. Empty means all origins allowed in dev mode.
	AllowedOrigins []string
	// RateLimitRequests is the number of requests allowed per period.
	RateLimitRequests int64
	// RateLimitPeriod is the duration string for rate limiting (e.g. "1m", "1h").
	RateLimitPeriod string
	// RedisURL enables the shared rate limit store when set.
	RedisURL string
	// Version information for the version endpoint.
	Version   string
	Commit    string
	BuildDate string
}

// DefaultConfig returns a Config with sensible defaults for development.
func DefaultConfig() Config {
	return Config{
		Environment:       config.EnvDevelopment,
		BaseURL:           "http://localhost:8080",
		AllowedOrigins:    []string{},
		RateLimitRequests: 300,
		RateLimitPeriod:   "1m",
		Version:           "dev",
		Commit:            "unknown",
		BuildDate:         "unknown",
	}
}

// Deps carries the wired services the router hands to handlers.
type Deps struct {
	DB       *db.DB
	OIDC     *auth.OIDC
	Sessions *auth.SessionStore
	Objects  *storage.Store
	Meter    *metering.Meter
	Analyzer handlers.Analyzer
	Teams    *teams.Service
	Billing  billing.Provider
	Catalog  *billing.Catalog
	Webhooks *billing.Service
	// Mailer may be nil when SMTP is not configured.
	Mailer   handlers.CompletionMailer
	Registry *prometheus.Registry
}

// Router wraps a Gin engine with configured middleware and routes.
type Router struct {
	Engine   *gin.Engine
	logger   zerolog.Logger
	sessions *auth.SessionStore
}

// NewRouter creates a new Router with the given dependencies.
func NewRouter(cfg Config, deps Deps, logger zerolog.Logger) (*Router, error) {
	r := &Router{
		Engine:   gin.New(),
		logger:   logger.With().Str("component", "router").Logger(),
		sessions: deps.Sessions,
	}

	// Global middleware
	r.Engine.Use(gin.Recovery())
	r.Engine.Use(middleware.RequestLogger(logger))
	r.Engine.Use(middleware.Metrics())
	r.Engine.Use(middleware.SecurityHeaders())
	r.Engine.Use(middleware.CORS(cfg.AllowedOrigins, cfg.Environment))
	r.Engine.Use(middleware.BodyLimit(maxJSONBodyBytes))

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitPeriod, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	r.Engine.Use(rateLimiter)

	public := r.Engine.Group("")

	// Health check endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.HealthChecker{
		"db":      handlers.HealthCheckerFunc(deps.DB.Ping),
		"storage": deps.Objects,
		"oidc":    deps.OIDC,
	}, logger)
	healthHandler.RegisterRoutes(public)

	// Prometheus metrics endpoint (no auth required)
	r.Engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	// Swagger API documentation (no auth required)
	r.Engine.GET("/api/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.URL("/api/docs/doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))

	// Version endpoint (no auth required)
	versionHandler := handlers.NewVersionHandler(cfg.Version, cfg.Commit, cfg.BuildDate, logger)
	versionHandler.RegisterRoutes(public)

	// Auth routes (no auth required)
	authHandler := handlers.NewAuthHandler(deps.OIDC, deps.Sessions, deps.DB, cfg.BaseURL, logger)
	authHandler.RegisterRoutes(public)

	// Payment provider webhooks (signature-verified, no session)
	billingHandler := handlers.NewBillingHandler(deps.DB, deps.Billing, deps.Catalog, deps.Webhooks, cfg.BaseURL, logger)
	billingHandler.RegisterWebhookRoutes(public)

	// API v1 routes (auth required)
	apiV1 := r.Engine.Group("/api/v1")
	apiV1.Use(middleware.AuthMiddleware(deps.Sessions, deps.DB, logger))
	apiV1.Use(middleware.AuditMiddleware(deps.DB, logger))

	backupsHandler := handlers.NewBackupsHandler(deps.DB, deps.Objects, deps.Meter, deps.Analyzer, deps.Mailer, cfg.BaseURL, logger)
	backupsHandler.RegisterRoutes(apiV1)

	usersHandler := handlers.NewUsersHandler(deps.DB, logger)
	usersHandler.RegisterRoutes(apiV1)

	usageHandler := handlers.NewUsageHandler(deps.Meter, logger)
	usageHandler.RegisterRoutes(apiV1)

	teamsHandler := handlers.NewTeamsHandler(deps.Teams, logger)
	teamsHandler.RegisterRoutes(apiV1)

	billingHandler.RegisterRoutes(apiV1)

	gdprHandler := handlers.NewGDPRHandler(deps.DB, deps.Objects, deps.Billing, deps.Sessions, logger)
	gdprHandler.RegisterRoutes(apiV1)

	// Admin routes (admin role required)
	adminGroup := apiV1.Group("/admin")
	adminGroup.Use(middleware.AdminMiddleware(logger))
	adminHandler := handlers.NewAdminHandler(deps.DB, logger)
	adminHandler.RegisterRoutes(adminGroup)

	r.logger.Info().Msg("API router initialized")
	return r, nil
}
