package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/seabattle/internal/api"
	"github.com/mcoot/seabattle/internal/config"
	"github.com/mcoot/seabattle/internal/factory"
	redisstorage "github.com/mcoot/seabattle/internal/storage/redis"
)

// How often expired sessions are swept
const sessionSweepInterval = 10 * time.Minute

func main() {
	// Load settings from config.yaml and SEABATTLE_* environment variables
	configDir := os.Getenv("SEABATTLE_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	// Build factory config
	factoryCfg := factory.Config{
		Logger:           logger,
		StorageType:      cfg.Storage.Type,
		MetricsNamespace: cfg.Metrics.Namespace,
	}
	factoryCfg.AuthConfig.SessionDuration = cfg.Auth.SessionDuration

	// Configure Redis if storage type is redis
	if cfg.Storage.Type == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.Redis.URL
		redisCfg.PoolSize = cfg.Storage.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Storage.Redis.MinIdleConns
		redisCfg.PlayerTTL = cfg.Storage.Redis.PlayerTTL
		redisCfg.RoomTTL = cfg.Storage.Redis.RoomTTL
		factoryCfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()

	routerCfg := api.RouterConfig{
		Logger:          logger,
		AuthService:     app.AuthService,
		MatchController: app.MatchController,
		LobbyService:    app.LobbyService,
		BotService:      app.BotService,
		Hub:             app.Hub,
		Gateway:         app.Gateway,
	}
	if cfg.Metrics.Enabled {
		routerCfg.Metrics = app.Metrics
	}

	// Create server
	server := api.NewServer(api.NewRouter(routerCfg), cfg.Server, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	go sweepSessions(ctx, app)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage.Type))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

func sweepSessions(ctx context.Context, app *factory.App) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			app.AuthService.CleanExpiredSessions()
		case <-ctx.Done():
			return
		}
	}
}
