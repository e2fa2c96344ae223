package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/seabattle/internal/api/middleware"
	"github.com/mcoot/seabattle/internal/notify"
)

// EventsHandler streams the authenticated player's events
type EventsHandler struct {
	hub    *notify.Hub
	logger *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *notify.Hub, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: logger}
}

// Stream handles GET /api/v1/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	notify.ServeSSE(w, r, h.hub, player.ID, h.logger)
}
