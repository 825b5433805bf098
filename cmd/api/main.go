// Package main is the entrypoint for the groupsub API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/groupsub/groupsub/internal/audit"
	"github.com/groupsub/groupsub/internal/cache"
	"github.com/groupsub/groupsub/internal/config"
	"github.com/groupsub/groupsub/internal/handler"
	"github.com/groupsub/groupsub/internal/metrics"
	"github.com/groupsub/groupsub/internal/middleware"
	"github.com/groupsub/groupsub/internal/server"
	"github.com/groupsub/groupsub/internal/subscription"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Workflow credentials are re-read per request; a gap here is not
	// fatal, but worth flagging before the first form submission fails.
	if _, err := config.LoadDiscourse(); err != nil {
		logger.Warn("discourse configuration incomplete at startup", "error", err)
	}

	metricsRecorder := metrics.NewInMemory()
	healthHandler := handler.NewHealthHandler()

	srvOpts := []func(*server.Server){}

	// Optional subscription audit log
	auditRecorder := audit.Recorder(audit.NewNoop())
	if cfg.DatabaseURL != "" {
		repo, err := audit.NewRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		auditRecorder = repo
		healthHandler.AddCheck("postgres", repo)
		srvOpts = append(srvOpts, func(s *server.Server) {
			s.OnShutdown("audit repository", func(ctx context.Context) error {
				repo.Close()
				return nil
			})
		})
		logger.Info("subscription audit log enabled")
	}

	// Optional rate-limit backend
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		healthHandler.AddCheck("redis", cacheClient)
		srvOpts = append(srvOpts, func(s *server.Server) {
			s.OnShutdown("redis client", func(ctx context.Context) error {
				return cacheClient.Close()
			})
		})
		logger.Info("rate limiting enabled")
	}

	workflow := subscription.New(logger, metricsRecorder, auditRecorder)

	subscribeHandler := handler.NewSubscribeHandler(workflow, logger, metricsRecorder, cfg.HomeURL)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)

	r := setupRouter(subscribeHandler, healthHandler, metricsHandler, cacheClient, metricsRecorder, cfg, logger)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	for _, opt := range srvOpts {
		opt(srv)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Server) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
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

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	subscribeHandler *handler.SubscribeHandler,
	healthHandler *handler.HealthHandler,
	metricsHandler *handler.MetricsHandler,
	cacheClient *cache.Cache,
	recorder metrics.Recorder,
	cfg *config.Server,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Operational endpoints
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	// The subscribe form answers on every other path: GET explains,
	// POST runs the workflow.
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  logger,
		Cache:   cacheClient,
		Metrics: recorder,
		Enabled: cfg.RateLimitEnabled && cacheClient != nil,
		RPS:     cfg.RateLimitRPS,
		Burst:   cfg.RateLimitBurst,
	}
	r.Get("/*", subscribeHandler.Instructions)
	r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/*", subscribeHandler.Submit)

	r.MethodNotAllowed(subscribeHandler.MethodNotAllowed)

	return r
}

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

	return msg
}
