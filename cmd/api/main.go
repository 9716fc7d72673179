// Package main is the entrypoint for the Palmgate API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/palmgate/palmgate/internal/analytics"
	"github.com/palmgate/palmgate/internal/auth"
	"github.com/palmgate/palmgate/internal/cache"
	"github.com/palmgate/palmgate/internal/config"
	"github.com/palmgate/palmgate/internal/handler"
	"github.com/palmgate/palmgate/internal/metrics"
	"github.com/palmgate/palmgate/internal/middleware"
	"github.com/palmgate/palmgate/internal/qr"
	"github.com/palmgate/palmgate/internal/repository"
	"github.com/palmgate/palmgate/internal/scanner"
	"github.com/palmgate/palmgate/internal/server"
	"github.com/palmgate/palmgate/internal/service"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Metrics
	metricsRecorder := metrics.NewPrometheus()

	// Palm scanner driver. The simulator stands in for real capture
	// hardware; production deployments swap in a device driver here.
	palmScanner := scanner.NewSimulated(cfg.ScannerSuccessRate, time.Now().UnixNano())

	// Session token verifier (tokens minted by the identity provider)
	sessionVerifier := auth.NewSessionVerifier(cfg.SessionSecret)

	// Activity event stream: terminal activity goes to a Redis stream and
	// a background worker folds it into the daily aggregates.
	var eventPublisher *analytics.Publisher
	var eventWorker *analytics.Worker
	if cfg.EventsEnabled {
		eventPublisher = analytics.NewPublisher(cacheClient.Client(), logger, metricsRecorder)
		eventWorker = analytics.NewWorker(cacheClient.Client(), repo, logger, analytics.NewConsumerID(), metricsRecorder)
	}

	// Initialize services
	verifier := service.NewPalmVerifier(repo, cacheClient, metricsRecorder)
	enrollmentService := service.NewEnrollmentService(repo, palmScanner, cfg.BaseURL, metricsRecorder)
	linkingService := service.NewLinkingService(repo, cacheClient, metricsRecorder)
	paymentService := service.NewPaymentService(verifier, repo, metricsRecorder, eventPublisher)
	attendanceService := service.NewAttendanceService(verifier, repo, metricsRecorder, eventPublisher)
	accessService := service.NewAccessService(verifier, repo, metricsRecorder, eventPublisher)
	walletService := service.NewWalletService(repo, cacheClient)

	// Background sweeper for expired unused registration tokens
	housekeeping := service.NewHousekeepingService(repo, logger, metricsRecorder, cfg.SweepInterval)
	housekeeping.Start()

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService, logger)
	linkingHandler := handler.NewLinkingHandler(linkingService, logger)
	paymentHandler := handler.NewPaymentHandler(paymentService, logger)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService, logger)
	accessHandler := handler.NewAccessHandler(accessService, logger)
	walletHandler := handler.NewWalletHandler(walletService, logger)
	apiKeyHandler := handler.NewAPIKeyHandler(logger, repo)
	statsHandler := handler.NewStatsHandler(logger, repo)

	// Setup router
	router := setupRouter(routerDeps{
		base:       h,
		health:     healthHandler,
		enrollment: enrollmentHandler,
		linking:    linkingHandler,
		payment:    paymentHandler,
		attendance: attendanceHandler,
		access:     accessHandler,
		wallet:     walletHandler,
		apiKeys:    apiKeyHandler,
		stats:      statsHandler,
		metrics:    metricsRecorder,
		verifier:   sessionVerifier,
		repo:       repo,
		cache:      cacheClient,
		cfg:        cfg,
		logger:     logger,
	})

	// Create and run server
	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("token sweeper", func(ctx context.Context) error {
		housekeeping.Stop()
		return nil
	})

	if eventWorker != nil {
		go func() {
			if err := eventWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("analytics worker exited", "error", err)
			}
		}()
		srv.OnShutdown("analytics worker", eventWorker.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"scanner_success_rate", cfg.ScannerSuccessRate,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routerDeps bundles everything setupRouter needs.
type routerDeps struct {
	base       *handler.Handler
	health     *handler.HealthHandler
	enrollment *handler.EnrollmentHandler
	linking    *handler.LinkingHandler
	payment    *handler.PaymentHandler
	attendance *handler.AttendanceHandler
	access     *handler.AccessHandler
	wallet     *handler.WalletHandler
	apiKeys    *handler.APIKeyHandler
	stats      *handler.StatsHandler
	metrics    *metrics.PrometheusRecorder
	verifier   *auth.SessionVerifier
	repo       *repository.Repository
	cache      *cache.Cache
	cfg        *config.Config
	logger     *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))

	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.IsDevelopment = deps.cfg.IsDevelopment()
	securityCfg.MaxRequestBodySize = deps.cfg.MaxRequestBodySize
	r.Use(middleware.Security(securityCfg))
	r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = deps.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)

	// Prometheus metrics
	r.Handle("/metrics", deps.metrics.Handler())

	// Root info endpoint
	r.Get("/", deps.base.Info)

	// Terminal auth middleware configuration
	authCfg := middleware.AuthConfig{
		Logger:     deps.logger,
		Repository: deps.repo,
		Cache:      deps.cache,
	}

	// User session middleware configuration
	sessionCfg := middleware.SessionConfig{
		Logger:   deps.logger,
		Verifier: deps.verifier,
	}

	// Rate limit middleware configuration
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:        deps.logger,
		Cache:         deps.cache,
		APIEnabled:    deps.cfg.RateLimitAPIEnabled,
		PublicEnabled: deps.cfg.RateLimitPublicEnabled,
		PublicRPS:     deps.cfg.RateLimitPublicRPS,
		PublicBurst:   deps.cfg.RateLimitPublicBurst,
	}

	// Token preview for the link page, rate limited per IP (no auth;
	// the token itself is the credential being inspected)
	r.With(middleware.RateLimitIP(rateLimitCfg)).Get(qr.LinkPath, deps.linking.Peek)

	r.Route("/api/v1", func(r chi.Router) {
		// Terminal routes (terminal key auth, scoped per terminal kind)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))
			r.Use(middleware.RateLimitAPI(rateLimitCfg))

			r.With(middleware.RequireEnroll()).Post("/enrollments", deps.enrollment.Capture)
			r.With(middleware.RequireCharge()).Post("/payments", deps.payment.Charge)
			r.With(middleware.RequireAttendance()).Post("/attendance", deps.attendance.Record)
			r.With(middleware.RequireAccess()).Post("/access/checks", deps.access.Check)

			// Aggregated activity for the admin dashboard
			r.With(middleware.RequireAdmin()).Get("/stats/daily", deps.stats.DailyStats)

			// Terminal key management (requires admin scope for mutations)
			r.Route("/api-keys", func(r chi.Router) {
				r.With(middleware.RequireAdmin()).Get("/", deps.apiKeys.ListAPIKeys)
				r.With(middleware.RequireAdmin()).Post("/", deps.apiKeys.CreateAPIKey)
				r.With(middleware.RequireAdmin()).Delete("/{key_id}", deps.apiKeys.RevokeAPIKey)
				r.With(middleware.RequireAdmin()).Post("/{key_id}/rotate", deps.apiKeys.RotateAPIKey)
			})
		})

		// User routes (session auth)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(sessionCfg))

			r.Post("/link", deps.linking.Link)

			r.Route("/me", func(r chi.Router) {
				r.Get("/profile", deps.wallet.GetProfile)
				r.Get("/cards", deps.wallet.ListCards)
				r.Put("/cards/{card_id}/default", deps.wallet.SetDefaultCard)
				r.Delete("/cards/{card_id}", deps.wallet.DeleteCard)
				r.Get("/transactions", deps.wallet.ListTransactions)
				r.Get("/attendance", deps.wallet.ListAttendance)
			})
		})
	})

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
