package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bracket-of-death/backend/auth"
)

// UserHandler manages identity-provider accounts. idp is nil when the
// provider is not configured, in which case every endpoint reports 503.
type UserHandler struct {
	idp *auth.AdminClient
}

func NewUserHandler(idp *auth.AdminClient) *UserHandler {
	return &UserHandler{idp: idp}
}

func (h *UserHandler) available(w http.ResponseWriter) bool {
	if h.idp == nil {
		errorResponse(w, http.StatusServiceUnavailable, "identity provider is not configured")
		return false
	}
	return true
}

func mapIdentityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		errorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrAdminAuthFailed):
		errorResponse(w, http.StatusBadGateway, "identity provider unavailable")
	default:
		errorResponse(w, http.StatusBadGateway, err.Error())
	}
}

// ListHandler handles GET /users?search=&max=.
func (h *UserHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	max := readQueryInt(r, "max", 0)
	users, err := h.idp.ListUsers(r.Context(), r.URL.Query().Get("search"), max)
	if err != nil {
		mapIdentityError(w, err)
		return
	}

	successResponse(w, http.StatusOK, users, "")
}

// GetHandler handles GET /users/{userID}.
func (h *UserHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	user, err := h.idp.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		mapIdentityError(w, err)
		return
	}

	successResponse(w, http.StatusOK, user, "")
}

type createUserInput struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Password  string   `json:"password"`
	Temporary bool     `json:"temporary"`
	Roles     []string `json:"roles"`
}

// CreateHandler handles POST /users.
func (h *UserHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var input createUserInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if strings.TrimSpace(input.Username) == "" || strings.TrimSpace(input.Email) == "" {
		errorResponse(w, http.StatusBadRequest, "username and email are required")
		return
	}

	user, err := h.idp.CreateUser(r.Context(), auth.CreateUserParams{
		Username:  input.Username,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  input.Password,
		Temporary: input.Temporary,
		Roles:     input.Roles,
	})
	if err != nil {
		mapIdentityError(w, err)
		return
	}

	successResponse(w, http.StatusCreated, user, "user created")
}

type updateUserInput struct {
	FirstName *string  `json:"first_name"`
	LastName  *string  `json:"last_name"`
	Email     *string  `json:"email"`
	Enabled   *bool    `json:"enabled"`
	Roles     []string `json:"roles"`
}

// UpdateHandler handles PUT /users/{userID}.
func (h *UserHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var input updateUserInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	user, err := h.idp.UpdateUser(r.Context(), chi.URLParam(r, "userID"), auth.UpdateUserParams{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Enabled:   input.Enabled,
		Roles:     input.Roles,
	})
	if err != nil {
		mapIdentityError(w, err)
		return
	}

	successResponse(w, http.StatusOK, user, "user updated")
}

// DeleteHandler handles DELETE /users/{userID}.
func (h *UserHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	if err := h.idp.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		mapIdentityError(w, err)
		return
	}

	successResponse(w, http.StatusOK, nil, "user deleted")
}

type resetPasswordInput struct {
	Password  string `json:"password"`
	Temporary bool   `json:"temporary"`
}

// ResetPasswordHandler handles PUT /users/{userID}/password.
func (h *UserHandler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var input resetPasswordInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if input.Password == "" {
		errorResponse(w, http.StatusBadRequest, "password is required")
		return
	}

	if err := h.idp.ResetPassword(r.Context(), chi.URLParam(r, "userID"), input.Password, input.Temporary); err != nil {
		mapIdentityError(w, err)
		return
	}

	successResponse(w, http.StatusOK, nil, "password reset")
}

// RolesHandler handles GET /users/roles.
func (h *UserHandler) RolesHandler(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	roles, err := h.idp.Roles(r.Context())
	if err != nil {
		mapIdentityError(w, err)
		return
	}

	successResponse(w, http.StatusOK, roles, "")
}
