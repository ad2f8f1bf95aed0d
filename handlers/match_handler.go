package handlers

import (
	"net/http"

	"github.com/bracket-of-death/backend/models"
	"github.com/bracket-of-death/backend/services"
)

type MatchHandler struct {
	matchService   *services.MatchService
	bracketService *services.BracketService
}

func NewMatchHandler(matchService *services.MatchService, bracketService *services.BracketService) *MatchHandler {
	return &MatchHandler{
		matchService:   matchService,
		bracketService: bracketService,
	}
}

// GenerateBracketHandler handles POST /tournaments/{tournamentID}/bracket.
func (h *MatchHandler) GenerateBracketHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	bracket, err := h.bracketService.GenerateAndSaveBracket(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusCreated, bracket, "bracket generated")
}

// GetBracketHandler handles GET /tournaments/{tournamentID}/bracket.
func (h *MatchHandler) GetBracketHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	bracket, err := h.bracketService.GetFullBracket(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, bracket, "")
}

// ListMatchesHandler handles GET /tournaments/{tournamentID}/matches.
func (h *MatchHandler) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var status *models.MatchStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := models.MatchStatus(v)
		status = &s
	}

	matches, err := h.matchService.ListMatches(r.Context(), id, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, matches, "")
}

// GetMatchHandler handles GET /tournaments/{tournamentID}/matches/{matchNumber}.
func (h *MatchHandler) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	matchNumber, err := readIDParam(r, "matchNumber")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), tournamentID, matchNumber)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, match, "")
}

type submitScoreInput struct {
	Team1Score int `json:"team1_score"`
	Team2Score int `json:"team2_score"`
	Override   *struct {
		Reason       string `json:"reason"`
		AuthorizedBy string `json:"authorized_by"`
	} `json:"override"`
}

// SubmitScoreHandler handles PUT /tournaments/{tournamentID}/matches/{matchNumber}/score.
func (h *MatchHandler) SubmitScoreHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	matchNumber, err := readIDParam(r, "matchNumber")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input submitScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	params := services.SubmitScoreParams{
		TournamentID: tournamentID,
		MatchNumber:  matchNumber,
		Team1Score:   input.Team1Score,
		Team2Score:   input.Team2Score,
	}
	if input.Override != nil {
		params.Override = &models.AdminOverride{
			Reason:       input.Override.Reason,
			AuthorizedBy: input.Override.AuthorizedBy,
		}
	}

	match, err := h.matchService.SubmitScore(r.Context(), params)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, match, "score recorded")
}
