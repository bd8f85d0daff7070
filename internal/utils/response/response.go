package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/memoriesapp/memories-service/internal/storage"
)

type Response struct {
	Status  string      `json:"status"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusPending = "pending"
)

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errorMessages string
	for _, err := range errs {
		errorMessages += err.Field() + ": " + err.Tag() + "; "
	}

	return Response{
		Status: StatusError,
		Error:  errorMessages,
	}
}

func RequestOK(message string, data interface{}) Response {
	return Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	}
}

// Pending signals an accepted request whose outcome arrives out-of-band,
// e.g. a verification or reset email on its way to the user's inbox.
func Pending(message string) Response {
	return Response{
		Status:  StatusPending,
		Message: message,
	}
}

// WriteError maps a domain error onto an HTTP status. Unexpected errors are
// logged and reported generically so internals never leak to the caller.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, GeneralError(err))
	case errors.Is(err, storage.ErrDuplicateEmail),
		errors.Is(err, storage.ErrDuplicateRequest),
		errors.Is(err, storage.ErrAlreadyAccepted):
		WriteJSON(w, http.StatusConflict, GeneralError(err))
	case errors.Is(err, storage.ErrInvalidToken),
		errors.Is(err, storage.ErrTokenExpired):
		WriteJSON(w, http.StatusBadRequest, GeneralError(err))
	case errors.Is(err, storage.ErrResetPending):
		WriteJSON(w, http.StatusCreated, Pending(err.Error()))
	case errors.Is(err, storage.ErrNotVerified),
		errors.Is(err, storage.ErrInvalidCredentials):
		WriteJSON(w, http.StatusUnauthorized, GeneralError(err))
	default:
		slog.Error("internal error", slog.String("error", err.Error()))
		WriteJSON(w, http.StatusInternalServerError, GeneralError(errors.New("internal server error")))
	}
}
