package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/openmkt/extdex/internal/config"
	dbRedis "github.com/openmkt/extdex/internal/db/redis"
	logpkg "github.com/openmkt/extdex/internal/logger"
	"github.com/openmkt/extdex/internal/metrics"
	"github.com/openmkt/extdex/internal/relevance"
	indexrepo "github.com/openmkt/extdex/internal/repository/index"
	registryrepo "github.com/openmkt/extdex/internal/repository/registry"
	chiTransport "github.com/openmkt/extdex/internal/transport/chi"
	healthuc "github.com/openmkt/extdex/internal/usecase/health"
	searchuc "github.com/openmkt/extdex/internal/usecase/search"
	"github.com/openmkt/extdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting extdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("search_engine", cfg.Search.Engine),
	)

	// Registry database — the authoritative extension store
	registry, err := registryrepo.Open(cfg.Registry.DSN)
	if err != nil {
		logger.Fatal("Failed to open registry database", zap.Error(err))
	}
	defer registry.Close()

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	weights := relevance.Weights{
		Rating:     *cfg.Search.Relevance.Rating,
		Downloads:  *cfg.Search.Relevance.Downloads,
		Timestamp:  *cfg.Search.Relevance.Timestamp,
		Unverified: *cfg.Search.Relevance.Unverified,
	}
	scorer := relevance.NewScorer(weights, logger)

	// Pick the query backend. The redis engine keeps a persistent
	// full-text index; memory ranks straight from the registry.
	ctx := context.Background()
	var backend searchuc.Backend
	var enginePinger healthuc.EnginePinger
	engineBacked := false

	switch cfg.Search.Engine {
	case config.EngineRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create engine store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Search engine not ready", zap.Error(err))
		}
		logger.Info("Connected to search engine", zap.Strings("addrs", cfg.Database.Addrs))

		backend = indexrepo.New(store, registry, scorer, logger)
		enginePinger = store
		engineBacked = true
	case config.EngineMemory:
		backend = searchuc.NewFallback(registry, scorer)
	default:
		logger.Fatal("Unknown search engine", zap.String("engine", cfg.Search.Engine))
	}

	searchSvc := searchuc.New(backend, engineBacked, weights, logger)
	if err := searchSvc.Init(ctx, cfg.Search.ClearOnStart); err != nil {
		logger.Fatal("Failed to initialise search index", zap.Error(err))
	}

	healthSvc := healthuc.New(registry, enginePinger)

	// Daily index refresh
	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	scheduler := searchuc.NewScheduler(searchSvc, *cfg.Search.RebuildHourUTC, logger)
	go scheduler.Run(schedulerCtx)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
