package handlers

import (
	"net/http"

	"github.com/matchpoint-dev/pingpong-tournaments/models"
	"github.com/matchpoint-dev/pingpong-tournaments/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bracketService services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bracketService}
}

// CreateBracketHandler handles POST /tournaments/{tournamentID}/bracket.
func (h *BracketHandler) CreateBracketHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.bracketService.CreateBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, round, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AdvanceRoundHandler handles POST /tournaments/{tournamentID}/bracket/advance.
func (h *BracketHandler) AdvanceRoundHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.bracketService.AdvanceRound(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, round, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateCustomMatchHandler handles POST /tournaments/{tournamentID}/bracket/matches.
func (h *BracketHandler) CreateCustomMatchHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CustomMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TournamentID = tournamentID

	match, err := h.bracketService.CreateCustomMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListBracketHandler handles GET /tournaments/{tournamentID}/bracket.
func (h *BracketHandler) ListBracketHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.bracketService.ListBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rounds": groupByRound(matches)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type bracketRoundGroup struct {
	Round     int             `json:"round"`
	RoundName string          `json:"round_name"`
	Matches   []*models.Match `json:"matches"`
}

// groupByRound buckets knockout matches into rounds, preserving the
// round/bracket-position ordering of the input.
func groupByRound(matches []*models.Match) []*bracketRoundGroup {
	rounds := make([]*bracketRoundGroup, 0)
	var current *bracketRoundGroup
	for _, match := range matches {
		if match.Round == nil {
			continue
		}
		if current == nil || current.Round != *match.Round {
			current = &bracketRoundGroup{Round: *match.Round}
			if match.RoundName != nil {
				current.RoundName = *match.RoundName
			}
			rounds = append(rounds, current)
		}
		current.Matches = append(current.Matches, match)
	}
	return rounds
}

// DeleteBracketHandler handles DELETE /tournaments/{tournamentID}/bracket.
func (h *BracketHandler) DeleteBracketHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	deleted, err := h.bracketService.DeleteBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"deleted_matches": deleted}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
