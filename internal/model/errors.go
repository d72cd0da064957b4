package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidCredentials covers wrong password and unknown email alike,
	// so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountInactive marks a soft-deleted account. It is surfaced to
	// callers with the same wording as ErrInvalidCredentials.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrTenantSuspended rejects requests from users of a suspended tenant.
	ErrTenantSuspended = errors.New("tenant is suspended")

	ErrInvalidTwoFactorCode    = errors.New("invalid two-factor code")
	ErrTwoFactorNotEnabled     = errors.New("two-factor authentication is not enabled")
	ErrTwoFactorNotProvisioned = errors.New("two-factor setup has not been started")
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication is already enabled")

	// ErrTokenExpired is deliberately distinguishable so clients know to
	// attempt a refresh instead of a full re-login.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked covers revoked, rotated and never-issued refresh
	// tokens indistinguishably.
	ErrTokenRevoked = errors.New("token revoked or not found")

	ErrTokenMalformed = errors.New("invalid token")

	// ErrAuthenticationRequired marks requests that carry no credentials at
	// all, as opposed to credentials that failed verification.
	ErrAuthenticationRequired = errors.New("authentication required")

	ErrInsufficientPermission = errors.New("insufficient permission")
	ErrEmailNotVerified       = errors.New("email address is not verified")
)

// AccountLockedError carries the lock expiry so the message can tell a
// legitimate user how long to wait without exposing internal thresholds.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d minutes", e.RemainingMinutes())
}

// RemainingMinutes returns the minutes left on the lock, rounded up and
// never below 1 while the lock is in effect.
func (e *AccountLockedError) RemainingMinutes() int {
	remaining := time.Until(e.Until)
	if remaining <= 0 {
		return 0
	}
	minutes := int((remaining + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
