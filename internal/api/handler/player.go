package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mcoot/seabattle/internal/api/middleware"
	"github.com/mcoot/seabattle/internal/api/request"
	"github.com/mcoot/seabattle/internal/api/response"
	"github.com/mcoot/seabattle/internal/services/auth"
	"github.com/mcoot/seabattle/internal/services/lobby"
	"github.com/mcoot/seabattle/internal/services/match"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	authService     *auth.Service
	matchController match.ControllerInterface
	lobbyService    lobby.ServiceInterface
	logger          *slog.Logger
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(
	authService *auth.Service,
	matchController match.ControllerInterface,
	lobbyService lobby.ServiceInterface,
	logger *slog.Logger,
) *PlayerHandler {
	return &PlayerHandler{
		authService:     authService,
		matchController: matchController,
		lobbyService:    lobbyService,
		logger:          logger,
	}
}

// Register handles POST /api/v1/players
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.authService.Register(r.Context(), req.Name, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.lobbyService.PublishUpdate(r.Context())
	response.JSON(w, http.StatusCreated, response.AuthResponseFromSession(session))
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// Unregister handles DELETE /api/v1/players/me.
// Any open match is forfeited before the player is removed.
func (h *PlayerHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	err := h.matchController.LeaveAndRemove(r.Context(), player.ID, func(ctx context.Context) error {
		return h.authService.Unregister(ctx, player.ID)
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	h.logger.Info("player left", slog.Int64("player_id", int64(player.ID)))
	h.lobbyService.PublishUpdate(r.Context())
	response.NoContent(w)
}
