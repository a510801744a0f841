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

	"github.com/gutwell/ragcore/internal/config"
	"github.com/gutwell/ragcore/internal/db"
	dbRedis "github.com/gutwell/ragcore/internal/db/redis"
	"github.com/gutwell/ragcore/internal/domain"
	domchunk "github.com/gutwell/ragcore/internal/domain/chunk"
	"github.com/gutwell/ragcore/internal/domain/keylock"
	logpkg "github.com/gutwell/ragcore/internal/logger"
	"github.com/gutwell/ragcore/internal/metrics"
	chunkrepo "github.com/gutwell/ragcore/internal/repository/chunk"
	collectionrepo "github.com/gutwell/ragcore/internal/repository/collection"
	"github.com/gutwell/ragcore/internal/repository/embcache"
	searchrepo "github.com/gutwell/ragcore/internal/repository/search"
	chiTransport "github.com/gutwell/ragcore/internal/transport/chi"
	openaiEmb "github.com/gutwell/ragcore/internal/transport/openai"
	collectionuc "github.com/gutwell/ragcore/internal/usecase/collection"
	embeddinguc "github.com/gutwell/ragcore/internal/usecase/embedding"
	healthuc "github.com/gutwell/ragcore/internal/usecase/health"
	ingestuc "github.com/gutwell/ragcore/internal/usecase/ingest"
	retrieveuc "github.com/gutwell/ragcore/internal/usecase/retrieve"
	"github.com/gutwell/ragcore/internal/version"
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

	logger.Info("Starting ragcore API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("built", version.Date),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	embedder := buildEmbedder(cfg.Embedding, store, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Repositories
	collRepo := collectionrepo.New(store).WithHNSW(collectionrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	chunks := chunkrepo.New(store)
	searcher := searchrepo.New(store)

	// One lock registry shared by every service touching collections
	locks := keylock.New()

	// Use case services
	collSvc := collectionuc.New(collRepo, chunks, locks, cfg.Embedding.Dimensions)
	ingestSvc := ingestuc.New(collRepo, chunks, embedder, locks, logger).
		WithChunking(domchunk.Config{
			SizeWords:    cfg.Chunking.SizeWords,
			OverlapWords: cfg.Chunking.OverlapWords,
			MinChars:     cfg.Chunking.MinChars,
		}).
		WithWorkers(cfg.Ingest.Workers)
	retrieveSvc := retrieveuc.New(searcher, collRepo, embedder, locks, retrieveuc.Config{
		FetchK:             cfg.Retrieval.FetchK,
		MaxChunks:          cfg.Retrieval.MaxChunks,
		MinRelevance:       cfg.Retrieval.MinRelevance,
		DiversityThreshold: cfg.Retrieval.DiversityThreshold,
		MaxContextChars:    cfg.Retrieval.MaxContextChars,
		EmbedTimeout:       time.Duration(cfg.Retrieval.EmbedTimeoutSec) * time.Second,
	})
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder))

	server := chiTransport.NewServer(collSvc, ingestSvc, retrieveSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embedderChain is what the usecase layer consumes: single and batch
// embedding behind one value.
type embedderChain interface {
	domain.Embedder
	domain.BatchEmbedder
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Retry -> Instrumented.
func buildEmbedder(cfg config.EmbeddingConfig, store db.Store, logger *zap.Logger) embedderChain {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		User:       cfg.User,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder embedderChain = base
	if cfg.CacheOn() && store != nil {
		embedder = embcache.New(embedder, store, cfg.Model, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewRetryEmbedder(embedder, cfg.MaxRetries, 0, logger)

	return embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Provider, cfg.Model, cfg.MaxBatchSize, logger,
	)
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
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

			// Canonical log line, one per request
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
