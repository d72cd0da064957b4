// Package response implements the uniform JSON envelope and the mapping
// from the error taxonomy to HTTP status codes.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/warelock/warelock-auth/internal/logger"
	"github.com/warelock/warelock-auth/internal/model"
)

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Success: true, Data: data})
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Success: false, Error: &Error{Code: code, Message: message}})
}

// ErrorMapper translates the error taxonomy into HTTP responses in one
// place. Internal failures are logged and surfaced without detail unless
// development mode is on.
type ErrorMapper struct {
	development bool
	logger      *logger.Logger
}

func NewErrorMapper(development bool, logger *logger.Logger) *ErrorMapper {
	return &ErrorMapper{development: development, logger: logger}
}

func (m *ErrorMapper) Write(w http.ResponseWriter, err error) {
	var locked *model.AccountLockedError
	if errors.As(err, &locked) {
		WriteError(w, http.StatusUnauthorized, "account_locked", locked.Error())
		return
	}

	switch {
	case errors.Is(err, model.ErrAuthenticationRequired):
		WriteError(w, http.StatusUnauthorized, "authentication_required", model.ErrAuthenticationRequired.Error())
	case errors.Is(err, model.ErrInvalidCredentials),
		errors.Is(err, model.ErrAccountInactive):
		// Inactive accounts and bad credentials are worded identically so
		// responses cannot be used to enumerate accounts.
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", model.ErrInvalidCredentials.Error())
	case errors.Is(err, model.ErrTokenExpired):
		WriteError(w, http.StatusUnauthorized, "token_expired", model.ErrTokenExpired.Error())
	case errors.Is(err, model.ErrTokenRevoked):
		WriteError(w, http.StatusUnauthorized, "token_revoked", model.ErrTokenRevoked.Error())
	case errors.Is(err, model.ErrTokenMalformed):
		WriteError(w, http.StatusUnauthorized, "invalid_token", model.ErrTokenMalformed.Error())
	case errors.Is(err, model.ErrInvalidTwoFactorCode):
		WriteError(w, http.StatusUnauthorized, "invalid_two_factor_code", model.ErrInvalidTwoFactorCode.Error())
	case errors.Is(err, model.ErrTwoFactorNotEnabled),
		errors.Is(err, model.ErrTwoFactorNotProvisioned),
		errors.Is(err, model.ErrTwoFactorAlreadyEnabled):
		WriteError(w, http.StatusBadRequest, "two_factor_state", err.Error())
	case errors.Is(err, model.ErrTenantSuspended):
		WriteError(w, http.StatusForbidden, "tenant_suspended", model.ErrTenantSuspended.Error())
	case errors.Is(err, model.ErrInsufficientPermission):
		WriteError(w, http.StatusForbidden, "insufficient_permission", model.ErrInsufficientPermission.Error())
	case errors.Is(err, model.ErrEmailNotVerified):
		WriteError(w, http.StatusForbidden, "email_not_verified", model.ErrEmailNotVerified.Error())
	case errors.Is(err, model.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", model.ErrNotFound.Error())
	default:
		m.logger.Error("internal error", "error", err.Error())
		message := "internal server error"
		if m.development {
			message = err.Error()
		}
		WriteError(w, http.StatusInternalServerError, "internal_error", message)
	}
}
