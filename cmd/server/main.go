package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"galaxy-server/internal/auth"
	"galaxy-server/internal/galaxy"
	"galaxy-server/internal/middleware"
	"galaxy-server/internal/server"
	serverHandlers "galaxy-server/internal/server/handlers"
	"galaxy-server/internal/shared/config"
	"galaxy-server/internal/shared/database"
	"galaxy-server/internal/shared/logger"
	"galaxy-server/internal/shared/redis"
)

func main() {
	if err := config.Init(); err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	logger.Init()
	cfg := config.GlobalConfig
	log := slog.With("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if _, err := db.RunMigrations(ctx, cfg.Database.MigrationsPath); err != nil {
		log.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	defaults, err := galaxy.DefaultParameters(cfg.Galaxy)
	if err != nil {
		log.Error("Invalid default galaxy parameters", "error", err)
		os.Exit(1)
	}

	galaxyLogger := slog.Default().With("component", "galaxy")

	var (
		sinks     []galaxy.BufferSink
		cache     galaxy.BufferCache
		cachePing serverHandlers.Pinger
	)
	if redisClient != nil {
		bufferCache := galaxy.NewCache(redisClient.Client, cfg.Redis.CacheTTL, galaxyLogger)
		sinks = append(sinks, bufferCache)
		cache = bufferCache
		cachePing = bufferCache
	}

	controller := galaxy.NewController(nil, galaxyLogger, sinks...)
	galaxyService := galaxy.NewService(galaxy.NewRepository(db.DB), cache, controller, galaxy.ServiceConfig{
		Defaults:          defaults,
		Controls:          galaxy.DefaultControls,
		GenerationTimeout: cfg.Galaxy.GenerationTimeout,
		HistoryLimit:      cfg.Galaxy.HistoryLimit,
	}, galaxyLogger)

	if err := galaxyService.Bootstrap(ctx); err != nil {
		log.Error("Failed to bootstrap galaxy", "error", err)
		os.Exit(1)
	}

	states := auth.NewStateManager()
	go states.Run(ctx, 5*time.Minute)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	go rateLimiter.Run(ctx, time.Minute)

	routes := server.NewRoutes(db, cachePing, galaxyService, auth.InitOAuth(), states, slog.Default())
	handler := middleware.NewCORS(cfg.Frontend).Middleware(rateLimiter.Middleware(routes.Setup()))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Galaxy server starting", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
		return
	}
	log.Info("Server stopped")
}
