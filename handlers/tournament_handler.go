package handlers

import (
	"net/http"
	"time"

	"github.com/bracket-of-death/backend/models"
	"github.com/bracket-of-death/backend/repositories"
	"github.com/bracket-of-death/backend/services"
)

type TournamentHandler struct {
	tournamentService *services.TournamentService
	deletionService   *services.DeletionService
	photoService      *services.PhotoService
}

func NewTournamentHandler(
	tournamentService *services.TournamentService,
	deletionService *services.DeletionService,
	photoService *services.PhotoService,
) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: tournamentService,
		deletionService:   deletionService,
		photoService:      photoService,
	}
}

type createTournamentInput struct {
	Date                  time.Time  `json:"date"`
	BodNumber             int        `json:"bod_number"`
	Format                string     `json:"format"`
	Location              *string    `json:"location"`
	MaxPlayers            int        `json:"max_players"`
	RegistrationType      string     `json:"registration_type"`
	AllowSelfRegistration bool       `json:"allow_self_registration"`
	RegistrationOpensAt   *time.Time `json:"registration_opens_at"`
	RegistrationDeadline  *time.Time `json:"registration_deadline"`
	Notes                 *string    `json:"notes"`
}

// CreateHandler handles POST /tournaments.
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input createTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), services.CreateTournamentParams{
		Date:                  input.Date,
		BodNumber:             input.BodNumber,
		Format:                models.TournamentFormat(input.Format),
		Location:              input.Location,
		MaxPlayers:            input.MaxPlayers,
		RegistrationType:      models.RegistrationType(input.RegistrationType),
		AllowSelfRegistration: input.AllowSelfRegistration,
		RegistrationOpensAt:   input.RegistrationOpensAt,
		RegistrationDeadline:  input.RegistrationDeadline,
		Notes:                 input.Notes,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusCreated, tournament, "tournament created")
}

// GetByIDHandler handles GET /tournaments/{tournamentID}.
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.GetWithDetails(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, tournament, "")
}

// ListHandler handles GET /tournaments.
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListTournamentsFilter{
		Limit:  readQueryInt(r, "limit", 0),
		Offset: readQueryInt(r, "offset", 0),
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := models.TournamentStatus(v)
		filter.Status = &status
	}
	if v := r.URL.Query().Get("format"); v != "" {
		format := models.TournamentFormat(v)
		filter.Format = &format
	}
	if year := readQueryInt(r, "year", 0); year > 0 {
		filter.Year = &year
	}

	tournaments, err := h.tournamentService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, tournaments, "")
}

type updateTournamentInput struct {
	Date                  time.Time  `json:"date"`
	Location              *string    `json:"location"`
	MaxPlayers            int        `json:"max_players"`
	RegistrationType      string     `json:"registration_type"`
	AllowSelfRegistration bool       `json:"allow_self_registration"`
	RegistrationOpensAt   *time.Time `json:"registration_opens_at"`
	RegistrationDeadline  *time.Time `json:"registration_deadline"`
	Notes                 *string    `json:"notes"`
}

// UpdateHandler handles PUT /tournaments/{tournamentID}.
func (h *TournamentHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input updateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if !input.Date.IsZero() {
		tournament.Date = input.Date
	}
	tournament.Location = input.Location
	if input.MaxPlayers != 0 {
		tournament.MaxPlayers = input.MaxPlayers
	}
	if input.RegistrationType != "" {
		tournament.RegistrationType = models.RegistrationType(input.RegistrationType)
	}
	tournament.AllowSelfRegistration = input.AllowSelfRegistration
	tournament.RegistrationOpensAt = input.RegistrationOpensAt
	tournament.RegistrationDeadline = input.RegistrationDeadline
	tournament.Notes = input.Notes

	if err := h.tournamentService.Update(r.Context(), tournament); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, tournament, "tournament updated")
}

type updateStatusInput struct {
	Status string `json:"status"`
}

// UpdateStatusHandler handles PATCH /tournaments/{tournamentID}/status.
func (h *TournamentHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input updateStatusInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.UpdateStatus(r.Context(), id, models.TournamentStatus(input.Status))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, tournament, "tournament status updated")
}

// CompleteHandler handles POST /tournaments/{tournamentID}/complete.
func (h *TournamentHandler) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	report, err := h.tournamentService.Complete(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, report, "tournament completed")
}

// DeleteHandler handles DELETE /tournaments/{tournamentID}.
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	report, err := h.deletionService.DeleteTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusOK, report, "tournament deleted")
}

// UploadPhotoHandler handles POST /tournaments/{tournamentID}/photos.
func (h *TournamentHandler) UploadPhotoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if !h.photoService.Enabled() {
		errorResponse(w, http.StatusServiceUnavailable, "photo storage is not configured")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	defer file.Close()

	location, err := h.photoService.UploadAlbumPhoto(r.Context(), id, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, http.StatusCreated, map[string]string{"url": location}, "photo uploaded")
}
