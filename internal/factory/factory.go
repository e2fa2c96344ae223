package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/seabattle/internal/dependencies/clock"
	"github.com/mcoot/seabattle/internal/dependencies/random"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/monitor"
	"github.com/mcoot/seabattle/internal/notify"
	"github.com/mcoot/seabattle/internal/services/auth"
	"github.com/mcoot/seabattle/internal/services/board"
	"github.com/mcoot/seabattle/internal/services/bot"
	"github.com/mcoot/seabattle/internal/services/lobby"
	"github.com/mcoot/seabattle/internal/services/match"
	"github.com/mcoot/seabattle/internal/storage"
	"github.com/mcoot/seabattle/internal/storage/memory"
	redisstorage "github.com/mcoot/seabattle/internal/storage/redis"
	"github.com/mcoot/seabattle/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// DefaultMetricsNamespace prefixes every exported metric when none is configured
const DefaultMetricsNamespace = "seabattle"

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Observability
	Metrics *monitor.Metrics
	Hub     *notify.Hub

	// Services
	BoardService    *board.Service
	MatchController *match.Controller
	LobbyService    *lobby.Service
	BotService      *bot.Service
	AuthService     *auth.Service

	// Transports
	Gateway *ws.Gateway

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// MetricsNamespace prefixes exported metrics (optional)
	MetricsNamespace string
}

// New creates a new application with all dependencies wired.
// The event hub is running on return; call Close to stop it.
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	var closers []io.Closer
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	namespace := cfg.MetricsNamespace
	if namespace == "" {
		namespace = DefaultMetricsNamespace
	}

	app := newWithDependencies(store, clk, rnd, authCfg, namespace, logger)
	app.closers = append(app.closers, closers...)
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, authCfg auth.Config, namespace string, logger *slog.Logger) *App {
	metrics := monitor.NewMetrics(namespace)
	hub := notify.NewHub(clk, logger)
	go hub.Run()

	// Create services
	boardService := board.New(rnd, logger)
	lobbyService := lobby.New(store, hub, clk, logger)
	matchController := match.NewController(store, boardService, hub, lobbyService, metrics, clk, logger)
	strategies := map[string]bot.Strategy{
		model.BotStrategyRandom: bot.NewRandomStrategy(rnd),
	}
	botService := bot.NewService(store, matchController, strategies, clk, rnd, logger)
	authService := auth.New(store, clk, authCfg, logger)

	gateway := ws.NewGateway(authService, matchController, botService, lobbyService, hub, metrics, clk, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		Metrics:         metrics,
		Hub:             hub,
		BoardService:    boardService,
		MatchController: matchController,
		LobbyService:    lobbyService,
		BotService:      botService,
		AuthService:     authService,
		Gateway:         gateway,
	}
}

// Close stops the event hub and releases storage connections
func (a *App) Close() error {
	a.Hub.Close()

	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
