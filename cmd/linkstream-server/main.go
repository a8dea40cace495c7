// Package main is the entrypoint for the LinkStream server.
//
// @title           LinkStream API
// @version         1.0
// @description     LinkStream - insights for your LinkedIn data export. Upload your export archive and get an AI summary, network statistics, and actionable insights.
//
// @host      localhost:8080
// @BasePath  /api/v1
//
// @securityDefinitions.apikey SessionAuth
// @in cookie
// @name session
// @description Session cookie authentication
//
// @tag.name Auth
// @tag.description OIDC authentication endpoints
// @tag.name Backups
// @tag.description Export archive uploads and analysis results
// @tag.name Usage
// @tag.description Monthly quota consumption
// @tag.name Teams
// @tag.description Team seats and invites
// @tag.name Billing
// @tag.description Subscription plans, checkout, and billing portal
// @tag.name GDPR
// @tag.description Data export and account erasure
// @tag.name Admin
// @tag.description Administrative endpoints
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/analysis"
	"github.com/linkstream/linkstream/internal/api"
	"github.com/linkstream/linkstream/internal/api/handlers"
	"github.com/linkstream/linkstream/internal/auth"
	"github.com/linkstream/linkstream/internal/billing"
	"github.com/linkstream/linkstream/internal/config"
	"github.com/linkstream/linkstream/internal/db"
	"github.com/linkstream/linkstream/internal/maintenance"
	"github.com/linkstream/linkstream/internal/metering"
	"github.com/linkstream/linkstream/internal/metrics"
	"github.com/linkstream/linkstream/internal/notifications"
	"github.com/linkstream/linkstream/internal/storage"
	"github.com/linkstream/linkstream/internal/summarize"
	"github.com/linkstream/linkstream/internal/teams"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("version", Version).Logger()
	if os.Getenv("ENV") != string(config.EnvProduction) {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger.Info().
		Str("version", Version).
		Str("commit", Commit).
		Str("build_date", BuildDate).
		Msg("Starting LinkStream server")

	// Load configuration
	cfg := config.LoadServerConfig()

	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL environment variable is required")
		return 1
	}

	database, err := db.New(ctx, db.DefaultConfig(cfg.DatabaseURL), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
		return 1
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run database migrations")
		return 1
	}

	// Initialize OIDC provider
	if cfg.OIDCIssuer == "" || cfg.OIDCClientID == "" {
		logger.Fatal().Msg("OIDC_ISSUER and OIDC_CLIENT_ID environment variables are required")
		return 1
	}
	oidcProvider, err := auth.NewOIDC(ctx, auth.DefaultOIDCConfig(
		cfg.OIDCIssuer,
		cfg.OIDCClientID,
		cfg.OIDCClientSecret,
		cfg.OIDCRedirectURL,
	), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize OIDC provider")
		return 1
	}

	// Initialize session store
	if cfg.SessionSecret == "" {
		logger.Fatal().Msg("SESSION_SECRET environment variable is required")
		return 1
	}
	isSecure := cfg.Environment == config.EnvProduction
	sessionCfg := auth.DefaultSessionConfig([]byte(cfg.SessionSecret), isSecure, cfg.SessionMaxAge, cfg.SessionIdleTimeout)
	sessions, err := auth.NewSessionStore(sessionCfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize session store")
		return 1
	}

	// Initialize object storage
	objects, err := storage.New(ctx, storage.Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		UseSSL:          cfg.S3UseSSL,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize object storage")
		return 1
	}

	// Initialize summarizer
	if cfg.GeminiAPIKey == "" {
		logger.Fatal().Msg("GEMINI_API_KEY environment variable is required")
		return 1
	}
	summarizer, err := summarize.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize summarizer")
		return 1
	}

	// Email is optional; everything that sends mail tolerates a nil service.
	var mailer *notifications.EmailService
	if cfg.SMTPHost != "" {
		mailer, err = notifications.NewEmailService(notifications.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			TLS:      cfg.SMTPTLS,
		}, cfg.BaseURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize email service")
			return 1
		}
	} else {
		logger.Info().Msg("SMTP not configured - email notifications disabled")
	}

	// Domain services
	meter := metering.New(database, logger)
	pipeline := analysis.NewPipeline(objects, summarizer, database, logger)

	var teamMailer teams.Mailer
	if mailer != nil {
		teamMailer = mailer
	}
	teamService := teams.NewService(database, teamMailer, logger)

	// Billing
	stripeClient := billing.NewStripeClient(cfg.StripeSecretKey, logger)
	catalog := billing.NewCatalog(cfg.StripePricePro, cfg.StripePriceBusiness)
	webhookService := billing.NewService(database, catalog, teamService, cfg.StripeWebhookSecret, logger)

	// Metrics
	collector := metrics.NewCollector(database, logger)
	registry := metrics.NewRegistry(collector)

	var completionMailer handlers.CompletionMailer
	if mailer != nil {
		completionMailer = mailer
	}

	router, err := api.NewRouter(api.Config{
		Environment:       cfg.Environment,
		BaseURL:           cfg.BaseURL,
		AllowedOrigins:    cfg.CORSOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitPeriod:   cfg.RateLimitPeriod,
		RedisURL:          cfg.RedisURL,
		Version:           Version,
		Commit:            Commit,
		BuildDate:         BuildDate,
	}, api.Deps{
		DB:       database,
		OIDC:     oidcProvider,
		Sessions: sessions,
		Objects:  objects,
		Meter:    meter,
		Analyzer: pipeline,
		Teams:    teamService,
		Billing:  stripeClient,
		Catalog:  catalog,
		Webhooks: webhookService,
		Mailer:   completionMailer,
		Registry: registry,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize router")
		return 1
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Start retention cleanup and reminder scheduler
	var maintMailer maintenance.Mailer
	if mailer != nil {
		maintMailer = mailer
	}
	runner := maintenance.NewRunner(database, objects, maintMailer, cfg.BaseURL, logger)
	if err := runner.Start(); err != nil {
		logger.Error().Err(err).Msg("Failed to start maintenance runner")
	}
	defer runner.Stop()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info().Str("signal", sig.String()).Msg("Shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
		return 1
	}

	logger.Info().Msg("Server stopped gracefully")
	return 0
}
