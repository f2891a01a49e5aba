package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jtomassoni/mmb-sub000/internal/audit"
	"github.com/jtomassoni/mmb-sub000/internal/clock"
	"github.com/jtomassoni/mmb-sub000/internal/config"
	"github.com/jtomassoni/mmb-sub000/internal/rollback"
	"github.com/jtomassoni/mmb-sub000/internal/server/handlers"
	"github.com/jtomassoni/mmb-sub000/internal/server/metrics"
	"github.com/jtomassoni/mmb-sub000/internal/server/middleware"
	"github.com/jtomassoni/mmb-sub000/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Parse flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	logger.Info("Starting server", "version", Version, "addr", cfg.ServerAddr)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	clk := clock.New()
	auditSvc := audit.NewService(store, logger, clk)
	notifier := rollback.NewLogNotifier(logger)
	coordinator := rollback.NewCoordinator(auditSvc, store, notifier, clk, logger)

	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)

	jwtConfig := handlers.JWTConfig{
		Secret:         []byte(cfg.JWTSecret),
		AccessTokenTTL: cfg.AccessTokenTTL,
	}

	commitHandler := handlers.NewCommitHandler(logger, store, auditSvc)
	auditHandler := handlers.NewAuditHandler(logger, auditSvc, coordinator)
	healthHandler := handlers.NewHealthHandler(logger, Version)

	authMw := middleware.AuthMiddleware(logger, jwtConfig)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/commit", authMw(http.HandlerFunc(commitHandler.HandleCommit)))
	mux.Handle("/api/v1/audit", authMw(http.HandlerFunc(auditHandler.HandleQuery)))
	mux.Handle("/api/v1/audit/stats", authMw(http.HandlerFunc(auditHandler.HandleStats)))
	mux.Handle("/api/v1/rollback", authMw(http.HandlerFunc(auditHandler.HandleRollback)))
	mux.HandleFunc("/api/v1/health", healthHandler.Health)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	var handler http.Handler = mux
	if cfg.RateLimitEnabled {
		handler = middleware.RateLimitMiddleware(cfg.RateLimitRate, cfg.RateLimitWindow, logger)(handler)
	}
	handler = middleware.LoggingWithSkip(logger, []string{"/api/v1/health", "/metrics"})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func printVersion() {
	fmt.Printf("MMB Autosave Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
