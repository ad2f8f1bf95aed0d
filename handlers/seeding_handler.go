package handlers

import (
	"net/http"

	"github.com/bracket-of-death/backend/models"
	"github.com/bracket-of-death/backend/services"
)

type SeedingHandler struct {
	seedingService    *services.SeedingService
	tournamentService *services.TournamentService
}

func NewSeedingHandler(seedingService *services.SeedingService, tournamentService *services.TournamentService) *SeedingHandler {
	return &SeedingHandler{
		seedingService:    seedingService,
		tournamentService: tournamentService,
	}
}

// PreviewHandler handles GET /tournaments/{tournamentID}/seeding. It runs
// the seeding calculation over the current roster without persisting
// anything, so organizers can review ranks before generating the bracket.
func (h *SeedingHandler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	preview, err := h.seedingService.PreviewSeeding(r.Context(), tournament.PlayerIDs, tournament.Format)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, map[string]any{
		"players":      preview.Players,
		"bracket_size": preview.BracketSize,
		"bye_count":    preview.ByeCount,
		"needs_byes":   preview.NeedsByes,
		"pairings":     services.GenerateBracketPairings(preview.Players),
	}, "")
}

type calculateSeedingInput struct {
	PlayerIDs []int                   `json:"player_ids"`
	Format    models.TournamentFormat `json:"format"`
}

// CalculateHandler handles POST /seeding/calculate for an ad-hoc set of
// players.
func (h *SeedingHandler) CalculateHandler(w http.ResponseWriter, r *http.Request) {
	var input calculateSeedingInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	seeded, err := h.seedingService.CalculateSeeding(r.Context(), input.PlayerIDs, input.Format)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, seeded, "")
}
