package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bracket-of-death/backend/repositories"
	"github.com/bracket-of-death/backend/services"
	"github.com/go-chi/chi/v5"
)

// envelope is the uniform response shape: success plus either data or an
// error string, with an optional human-readable message.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	js, err := json.Marshal(env)
	if err != nil {
		slog.Error("failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(js)
}

func successResponse(w http.ResponseWriter, status int, data interface{}, message string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message})
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	errorResponse(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, err error) {
	errorResponse(w, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter) {
	errorResponse(w, http.StatusNotFound, "the requested resource could not be found")
}

func conflictResponse(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusConflict, message)
}

// readIDParam extracts a positive integer URL parameter.
func readIDParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter %q", name, raw)
	}
	return id, nil
}

func readQueryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// mapServiceErrorToHTTP translates service and repository sentinels into
// response statuses.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repositories.ErrPlayerNotFound),
		errors.Is(err, repositories.ErrTournamentNotFound),
		errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, repositories.ErrResultNotFound),
		errors.Is(err, repositories.ErrRegistrationNotFound),
		errors.Is(err, services.ErrNotRegistered):
		notFoundResponse(w)

	case errors.Is(err, repositories.ErrPlayerNameConflict),
		errors.Is(err, repositories.ErrBodNumberConflict),
		errors.Is(err, repositories.ErrAlreadyRegistered),
		errors.Is(err, services.ErrBracketExists),
		errors.Is(err, services.ErrMatchCompleted):
		conflictResponse(w, err.Error())

	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrTieScore),
		errors.Is(err, services.ErrScoreNotStandard),
		errors.Is(err, services.ErrMaxPlayersNotPowerOfTwo),
		errors.Is(err, services.ErrInsufficientPlayers),
		errors.Is(err, services.ErrOddPlayerCount),
		errors.Is(err, services.ErrPlayersMissing),
		errors.Is(err, services.ErrMatchTeamsIncomplete),
		errors.Is(err, services.ErrInvalidStatusTransition):
		badRequestResponse(w, err)

	case errors.Is(err, services.ErrTournamentNotOpen),
		errors.Is(err, services.ErrTournamentNotActive),
		errors.Is(err, services.ErrRegistrationWindow),
		errors.Is(err, services.ErrSelfRegistrationOff),
		errors.Is(err, services.ErrIncompleteMatches):
		errorResponse(w, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, repositories.ErrPlayerInUse),
		errors.Is(err, repositories.ErrTournamentInUse):
		conflictResponse(w, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}
