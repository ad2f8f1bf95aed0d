package handlers

import (
	"net/http"

	"github.com/bracket-of-death/backend/services"
)

type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// RecalculateTournamentHandler handles POST /tournaments/{tournamentID}/recalculate.
func (h *StatsHandler) RecalculateTournamentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	summary, err := h.statsService.RecalculateForTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, summary, "stats recalculated")
}
