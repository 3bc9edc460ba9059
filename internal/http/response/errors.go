package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopzen/storefront/internal/domain"
	"github.com/shopzen/storefront/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errResp := ErrorResponse{
		Error: message,
		Code:  code,
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

// WriteJSON writes an arbitrary JSON payload with the given status
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// Error codes
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeMissingToken       = "MISSING_TOKEN"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeRoleForbidden      = "ROLE_FORBIDDEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidMobile      = "INVALID_MOBILE"
	CodeExpiredPending     = "EXPIRED_PENDING"
	CodeAlreadyCompleted   = "ALREADY_COMPLETED"
	CodeIdentityAssertion  = "IDENTITY_ASSERTION_INVALID"
	CodeConflict           = "CONFLICT"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
)

// WriteDomainError maps expected auth outcomes onto well-formed 4xx
// responses; anything unrecognized is an infrastructure failure.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
	case errors.Is(err, domain.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "Invalid credentials", CodeInvalidCredentials)
	case errors.Is(err, domain.ErrInvalidMobile):
		WriteError(w, http.StatusBadRequest, "Invalid mobile number", CodeInvalidMobile)
	case errors.Is(err, domain.ErrExpiredPending):
		WriteError(w, http.StatusBadRequest, "Pending registration expired or not found", CodeExpiredPending)
	case errors.Is(err, domain.ErrAlreadyCompleted):
		WriteError(w, http.StatusConflict, "Registration already completed", CodeAlreadyCompleted)
	case errors.Is(err, domain.ErrIdentityAssertion):
		WriteError(w, http.StatusUnauthorized, "Identity assertion could not be verified", CodeIdentityAssertion)
	case errors.Is(err, domain.ErrEmailTaken):
		WriteError(w, http.StatusConflict, "Email already registered", CodeConflict)
	case errors.Is(err, domain.ErrMobileTaken):
		WriteError(w, http.StatusConflict, "Mobile number already registered", CodeConflict)
	case errors.Is(err, domain.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "User not found", CodeNotFound)
	default:
		WriteError(w, http.StatusInternalServerError, "Internal server error", CodeInternalError)
	}
}

// Convenience writers
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}
