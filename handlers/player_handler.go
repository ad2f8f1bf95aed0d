package handlers

import (
	"net/http"

	"github.com/bracket-of-death/backend/models"
	"github.com/bracket-of-death/backend/repositories"
	"github.com/bracket-of-death/backend/services"
)

type PlayerHandler struct {
	playerService *services.PlayerService
	statsService  *services.StatsService
}

func NewPlayerHandler(playerService *services.PlayerService, statsService *services.StatsService) *PlayerHandler {
	return &PlayerHandler{
		playerService: playerService,
		statsService:  statsService,
	}
}

type createPlayerInput struct {
	Name              string  `json:"name"`
	Email             *string `json:"email"`
	Gender            string  `json:"gender"`
	BracketPreference *string `json:"bracket_preference"`
}

// CreateHandler handles POST /players.
func (h *PlayerHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input createPlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	player := &models.Player{
		Name:              input.Name,
		Email:             input.Email,
		Gender:            models.Gender(input.Gender),
		BracketPreference: input.BracketPreference,
	}
	if err := h.playerService.Create(r.Context(), player); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusCreated, player, "player created")
}

// GetByIDHandler handles GET /players/{playerID}.
func (h *PlayerHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "playerID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	player, err := h.playerService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, player, "")
}

// ListHandler handles GET /players.
func (h *PlayerHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListPlayersFilter{
		Limit:  readQueryInt(r, "limit", 0),
		Offset: readQueryInt(r, "offset", 0),
	}
	if v := r.URL.Query().Get("active"); v == "true" || v == "false" {
		active := v == "true"
		filter.IsActive = &active
	}
	if v := r.URL.Query().Get("gender"); v != "" {
		gender := models.Gender(v)
		filter.Gender = &gender
	}

	players, err := h.playerService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, players, "")
}

type updatePlayerInput struct {
	Name              string  `json:"name"`
	Email             *string `json:"email"`
	Gender            string  `json:"gender"`
	BracketPreference *string `json:"bracket_preference"`
	IsActive          *bool   `json:"is_active"`
}

// UpdateHandler handles PUT /players/{playerID}.
func (h *PlayerHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "playerID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input updatePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	player, err := h.playerService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	player.Name = input.Name
	player.Email = input.Email
	if input.Gender != "" {
		player.Gender = models.Gender(input.Gender)
	}
	player.BracketPreference = input.BracketPreference
	if input.IsActive != nil {
		player.IsActive = *input.IsActive
	}

	if err := h.playerService.Update(r.Context(), player); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, player, "player updated")
}

// DeleteHandler handles DELETE /players/{playerID}.
func (h *PlayerHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "playerID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.playerService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, nil, "player deleted")
}

// LeaderboardHandler handles GET /players/leaderboard.
func (h *PlayerHandler) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	minBods := readQueryInt(r, "min_bods", 3)
	limit := readQueryInt(r, "limit", 50)

	rows, err := h.playerService.Leaderboard(r.Context(), minBods, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, rows, "")
}

// RecalculateStatsHandler handles POST /players/{playerID}/recalculate.
func (h *PlayerHandler) RecalculateStatsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "playerID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	snapshot, err := h.statsService.RecalculateForPlayer(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, map[string]any{
		"players_updated":   1,
		"results_processed": snapshot.BodsPlayed,
		"stats":             snapshot,
	}, "player stats recalculated")
}
