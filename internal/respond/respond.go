package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ayush/task-manager/backend/internal/apperr"
	"github.com/ayush/task-manager/backend/internal/logger"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

// MessageBody is returned by operations with nothing else to report.
type MessageBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Message writes a {success,message} body.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageBody{Success: status < 400, Message: msg})
}

// MaxBodyBytes caps the size of a JSON request body.
const MaxBodyBytes = 1 << 20

// Decode reads a JSON request body of at most MaxBodyBytes into v.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.ErrBodyTooLarge
		}
		return apperr.Validation("body", "invalid request body")
	}
	return nil
}

// Error maps err to a status code and writes it. Unexpected errors are
// logged and hidden behind a generic message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, body := Status(err)
	if status >= 500 {
		logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
	}
	JSON(w, status, body)
}

// Status returns the status code and body for err.
func Status(err error) (int, ErrorBody) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ErrorBody{Message: validationMessage(ve), Errors: ve.Fields}
	case errors.Is(err, apperr.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, ErrorBody{Message: "Request body too large"}
	case errors.Is(err, apperr.ErrDuplicateEmail):
		return http.StatusConflict, ErrorBody{Message: "User already exists"}
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorBody{Message: "Invalid email or password"}
	case errors.Is(err, apperr.ErrTokenExpired):
		return http.StatusUnauthorized, ErrorBody{Message: "Token expired, please log in again"}
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorBody{Message: "Not authorized, please log in"}
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Message: "Not found"}
	default:
		return http.StatusInternalServerError, ErrorBody{Message: "Internal server error"}
	}
}

func validationMessage(ve *apperr.ValidationError) string {
	if len(ve.Fields) == 1 {
		return ve.Fields[0].Field + ": " + ve.Fields[0].Message
	}
	return "Validation failed"
}
