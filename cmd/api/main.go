package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/taskdeck/api/internal/auth"
	"github.com/taskdeck/api/internal/config"
	"github.com/taskdeck/api/internal/db"
	httpx "github.com/taskdeck/api/internal/http"
	"github.com/taskdeck/api/internal/observability"
	"github.com/taskdeck/api/internal/redisclient"
	"github.com/taskdeck/api/internal/repo/postgres"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	// tracing is opt-in via the OTLP endpoint
	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "taskdeck", cfg.OTELEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	// the pooled connection resource, built once and injected everywhere
	if cfg.DBURL == "" {
		log.Error("DATABASE_URL is not configured")
		os.Exit(1)
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("could not connect to database", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	// metrics registry
	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	// session verifier: local session table or delegation to the identity
	// service, behind the same contract
	var backend auth.SessionVerifier

	switch cfg.AuthMode {
	case config.AuthModeRemote:
		if cfg.AuthServiceURL == "" {
			log.Error("AUTH_SERVICE_URL is required in remote auth mode")
			os.Exit(1)
		}

		backend = auth.NewRemoteVerifier(cfg.AuthServiceURL, time.Duration(cfg.AuthTimeoutSeconds)*time.Second)

	default:
		backend = auth.NewDBVerifier(postgres.NewSessionsRepo(pool))
	}

	metered := auth.NewMeteredVerifier(backend, prom, cfg.AuthMode)

	// identity cache: redis when configured, in-process otherwise
	cacheTTL := time.Duration(cfg.SessionCacheTTLSecs) * time.Second

	var idCache auth.IdentityCache

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := config.WithTimeout(2 * time.Second)
		err := rc.Ping(pingCtx)
		cancel()

		if err != nil {
			log.Error("could not connect to redis", "err", err)
			os.Exit(1)
		}

		defer rc.Close()

		idCache = auth.NewRedisIdentityCache(rc.Raw())
	} else {
		idCache = auth.NewMemoryIdentityCache(cacheTTL)
	}

	verifier := auth.NewCachedVerifier(metered, idCache, cfg.SessionCachePepper, cacheTTL)

	// set up routers
	tasksRepo := postgres.NewTasksRepo(pool, prom)
	router := httpx.NewRouter(log, pool, cfg, verifier, tasksRepo, prom)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "auth_mode", cfg.AuthMode)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
