package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/seabattle/internal/api/handler"
	"github.com/mcoot/seabattle/internal/api/middleware"
	httpmiddleware "github.com/mcoot/seabattle/internal/middleware"
	"github.com/mcoot/seabattle/internal/monitor"
	"github.com/mcoot/seabattle/internal/notify"
	"github.com/mcoot/seabattle/internal/services/auth"
	"github.com/mcoot/seabattle/internal/services/bot"
	"github.com/mcoot/seabattle/internal/services/lobby"
	"github.com/mcoot/seabattle/internal/services/match"
	"github.com/mcoot/seabattle/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	AuthService     *auth.Service
	MatchController match.ControllerInterface
	LobbyService    lobby.ServiceInterface
	BotService      bot.ServiceInterface
	Hub             *notify.Hub
	// Metrics is optional; /metrics is only served when set
	Metrics *monitor.Metrics
	// Gateway is optional; /ws is only served when set
	Gateway *ws.Gateway
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService, cfg.MatchController, cfg.LobbyService, cfg.Logger)
	lobbyHandler := handler.NewLobbyHandler(cfg.LobbyService)
	roomHandler := handler.NewRoomHandler(cfg.MatchController, cfg.BotService, cfg.Logger)
	eventsHandler := handler.NewEventsHandler(cfg.Hub, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := httpmiddleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)

	// Registration needs no session
	api.HandleFunc("/players", playerHandler.Register).Methods(http.MethodPost)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	playerProtected.HandleFunc("/me", playerHandler.Unregister).Methods(http.MethodDelete)

	// Lobby and event stream
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/lobby", lobbyHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)

	// Room routes (all require auth)
	rooms := api.PathPrefix("/rooms").Subrouter()
	rooms.Use(authMiddleware)
	rooms.HandleFunc("", roomHandler.Create).Methods(http.MethodPost)
	rooms.HandleFunc("/single", roomHandler.CreateSingle).Methods(http.MethodPost)
	rooms.HandleFunc("/{id:[0-9]+}", roomHandler.Get).Methods(http.MethodGet)
	rooms.HandleFunc("/{id:[0-9]+}/join", roomHandler.Join).Methods(http.MethodPost)
	rooms.HandleFunc("/{id:[0-9]+}/ships", roomHandler.PlaceShips).Methods(http.MethodPost)
	rooms.HandleFunc("/{id:[0-9]+}/attack", roomHandler.Attack).Methods(http.MethodPost)
	rooms.HandleFunc("/{id:[0-9]+}/attack/random", roomHandler.RandomAttack).Methods(http.MethodPost)
	rooms.HandleFunc("/{id:[0-9]+}/leave", roomHandler.Leave).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Outside the API middleware: the websocket upgrade needs the raw writer
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}
	if cfg.Gateway != nil {
		r.Handle("/ws", cfg.Gateway)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
