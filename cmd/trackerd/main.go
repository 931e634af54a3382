package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/caffeinepub/calorie-burn-tracker/internal/api"
	"github.com/caffeinepub/calorie-burn-tracker/internal/config"
	"github.com/caffeinepub/calorie-burn-tracker/internal/identity"
	"github.com/caffeinepub/calorie-burn-tracker/internal/remote"
	"github.com/caffeinepub/calorie-burn-tracker/internal/tracker"
	httptransport "github.com/caffeinepub/calorie-burn-tracker/internal/transport/http"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	factory := clientFactory(cfg, logger)

	core := tracker.New(tracker.Options{
		Identity:        identity.Config{Secret: cfg.IdentitySecret, Issuer: cfg.IdentityIssuer},
		ClientFactory:   factory,
		RefreshInterval: cfg.RefreshInterval,
		Logger:          logger,
	})
	go core.RunBackgroundRefresh(ctx)

	handler := api.NewHandler(core, logger)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.UIOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(requestLogger(logger))
	handler.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress), r)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("trackerd listening", zap.String("address", cfg.HTTPAddress), zap.Bool("dev_backend", cfg.DevBackend))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// clientFactory binds a backend client per signed-in identity. In dev mode
// every session shares one in-process backend seeded per principal.
func clientFactory(cfg config.Config, logger *zap.Logger) tracker.ClientFactory {
	if cfg.DevBackend {
		backend := remote.NewMemoryBackend()
		logger.Info("using in-process dev backend")
		return func(id identity.Identity, _ string) remote.Client {
			return backend.ClientFor(id.Principal)
		}
	}
	return func(_ identity.Identity, token string) remote.Client {
		return remote.NewHTTPClient(cfg.BackendURL, token, cfg.RequestTimeout)
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("elapsed", time.Since(start)))
		})
	}
}
