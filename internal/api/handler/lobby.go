package handler

import (
	"net/http"

	"github.com/mcoot/seabattle/internal/api/response"
	"github.com/mcoot/seabattle/internal/services/lobby"
)

// LobbyHandler serves the shared lobby view
type LobbyHandler struct {
	lobbyService lobby.ServiceInterface
}

// NewLobbyHandler creates a new lobby handler
func NewLobbyHandler(lobbyService lobby.ServiceInterface) *LobbyHandler {
	return &LobbyHandler{lobbyService: lobbyService}
}

// Get handles GET /api/v1/lobby
func (h *LobbyHandler) Get(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.lobbyService.Snapshot(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LobbyFromModel(snapshot))
}
