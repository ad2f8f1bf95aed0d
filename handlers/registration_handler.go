package handlers

import (
	"net/http"

	"github.com/bracket-of-death/backend/middleware"
	"github.com/bracket-of-death/backend/services"
)

type RegistrationHandler struct {
	registrationService *services.RegistrationService
}

func NewRegistrationHandler(registrationService *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

// GetInfoHandler handles GET /tournaments/{tournamentID}/registrations.
func (h *RegistrationHandler) GetInfoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	info, err := h.registrationService.GetRegistrationInfo(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, info, "")
}

type registerInput struct {
	PlayerID int `json:"player_id"`
}

// RegisterHandler handles POST /tournaments/{tournamentID}/registrations.
// Admins may register any player; regular users only themselves.
func (h *RegistrationHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input registerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	asSelf := !role.IsAdmin()
	if asSelf {
		userID, err := middleware.GetUserIDFromContext(r.Context())
		if err != nil {
			errorResponse(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if input.PlayerID != 0 && input.PlayerID != userID {
			errorResponse(w, http.StatusForbidden, "players may only register themselves")
			return
		}
		input.PlayerID = userID
	}

	entry, err := h.registrationService.Register(r.Context(), tournamentID, input.PlayerID, asSelf)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	message := "registered"
	if entry.List != "registered" {
		message = "added to waitlist"
	}
	successResponse(w, http.StatusCreated, entry, message)
}

// UnregisterHandler handles DELETE /tournaments/{tournamentID}/registrations/{playerID}.
func (h *RegistrationHandler) UnregisterHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	playerID, err := readIDParam(r, "playerID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !role.IsAdmin() {
		userID, err := middleware.GetUserIDFromContext(r.Context())
		if err != nil || userID != playerID {
			errorResponse(w, http.StatusForbidden, "players may only unregister themselves")
			return
		}
	}

	promoted, err := h.registrationService.Unregister(r.Context(), tournamentID, playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, map[string]interface{}{"promoted": promoted}, "unregistered")
}

// FinalizeRosterHandler handles POST /tournaments/{tournamentID}/registrations/finalize.
func (h *RegistrationHandler) FinalizeRosterHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	playerIDs, err := h.registrationService.FinalizeRoster(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, map[string]interface{}{"player_ids": playerIDs}, "roster finalized")
}
