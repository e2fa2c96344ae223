package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/seabattle/internal/api/middleware"
	"github.com/mcoot/seabattle/internal/api/request"
	"github.com/mcoot/seabattle/internal/api/response"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/services/bot"
	"github.com/mcoot/seabattle/internal/services/match"
)

// RoomHandler handles room and match endpoints
type RoomHandler struct {
	matchController match.ControllerInterface
	botService      bot.ServiceInterface
	logger          *slog.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(matchController match.ControllerInterface, botService bot.ServiceInterface, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		matchController: matchController,
		botService:      botService,
		logger:          logger,
	}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	room, err := h.matchController.CreateRoom(r.Context(), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, roomLocation(room.ID), response.RoomFromModel(room, player.ID))
}

// CreateSingle handles POST /api/v1/rooms/single
func (h *RoomHandler) CreateSingle(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	room, err := h.botService.StartSinglePlay(r.Context(), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, roomLocation(room.ID), response.RoomFromModel(room, player.ID))
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	roomID, ok := roomIDFromRequest(w, r)
	if !ok {
		return
	}

	room, err := h.matchController.GetRoom(r.Context(), roomID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !room.HasMember(player.ID) {
		WriteError(w, model.ErrNotInRoom)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, player.ID))
}

// Join handles POST /api/v1/rooms/{id}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	roomID, ok := roomIDFromRequest(w, r)
	if !ok {
		return
	}

	room, err := h.matchController.JoinRoom(r.Context(), player.ID, roomID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, player.ID))
}

// PlaceShips handles POST /api/v1/rooms/{id}/ships
func (h *RoomHandler) PlaceShips(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	roomID, ok := roomIDFromRequest(w, r)
	if !ok {
		return
	}

	var req request.PlaceShipsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	room, err := h.matchController.SubmitPlacement(r.Context(), player.ID, roomID, req.Ships)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, player.ID))
}

// Attack handles POST /api/v1/rooms/{id}/attack
func (h *RoomHandler) Attack(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	roomID, ok := roomIDFromRequest(w, r)
	if !ok {
		return
	}

	var req request.AttackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.X == nil || req.Y == nil {
		WriteError(w, NewInvalidRequestError("x and y are required"))
		return
	}

	outcome, err := h.matchController.SubmitShot(r.Context(), model.ShotRequest{
		PlayerID: player.ID,
		RoomID:   roomID,
		Target:   model.Position{X: *req.X, Y: *req.Y},
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	h.processBotTurns(r.Context(), roomID, outcome)
	response.JSON(w, http.StatusOK, response.ShotFromModel(outcome))
}

// RandomAttack handles POST /api/v1/rooms/{id}/attack/random
func (h *RoomHandler) RandomAttack(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	roomID, ok := roomIDFromRequest(w, r)
	if !ok {
		return
	}

	outcome, err := h.matchController.RandomShot(r.Context(), player.ID, roomID, false)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.processBotTurns(r.Context(), roomID, outcome)
	response.JSON(w, http.StatusOK, response.ShotFromModel(outcome))
}

// Leave handles POST /api/v1/rooms/{id}/leave
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	roomID, ok := roomIDFromRequest(w, r)
	if !ok {
		return
	}

	room, err := h.matchController.RoomForPlayer(r.Context(), player.ID)
	if err != nil || room.ID != roomID {
		WriteError(w, model.ErrNotInRoom)
		return
	}

	if err := h.matchController.LeaveRoom(r.Context(), player.ID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// processBotTurns lets a bot opponent answer the shot
func (h *RoomHandler) processBotTurns(ctx context.Context, roomID model.RoomID, outcome model.ShotOutcome) {
	if outcome.Finished() || outcome.Result.Status == model.ShotRepeated {
		return
	}
	if _, err := h.botService.ProcessBotTurns(ctx, roomID); err != nil {
		h.logger.Error("bot turns failed",
			slog.Int64("room_id", int64(roomID)),
			slog.String("error", err.Error()))
	}
}

func roomIDFromRequest(w http.ResponseWriter, r *http.Request) (model.RoomID, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, NewInvalidRequestError("invalid room id"))
		return 0, false
	}
	return model.RoomID(id), true
}

func roomLocation(id model.RoomID) string {
	return fmt.Sprintf("/api/v1/rooms/%d", id)
}
