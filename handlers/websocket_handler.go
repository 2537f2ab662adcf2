package handlers

import (
	"net/http"
	"strconv"

	"github.com/matchpoint-dev/pingpong-tournaments/brackets"
	"github.com/matchpoint-dev/pingpong-tournaments/services"
)

type WebSocketHandler struct {
	hub               *brackets.Hub
	tournamentService services.TournamentService
}

func NewWebSocketHandler(hub *brackets.Hub, tournamentService services.TournamentService) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, tournamentService: tournamentService}
}

// ServeWsHandler handles GET /ws/tournaments/{tournamentID}. Each tournament
// has its own room; live match, standings and bracket updates are pushed to
// everyone subscribed to it.
func (h *WebSocketHandler) ServeWsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.tournamentService.Get(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// The upgrader reports failures to the client itself.
	_ = h.hub.ServeWs(w, r, strconv.Itoa(tournamentID))
}
