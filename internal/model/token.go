package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenManager generates and validates the three token kinds: short-lived
// access tokens, rotating refresh tokens and pending two-factor tokens.
type TokenManager interface {
	GenerateAccessToken(user User) (string, error)
	GenerateRefreshToken(userID uuid.UUID) (token string, jti string, err error)
	GeneratePendingToken(userID uuid.UUID) (string, error)

	ParseAccessToken(token string) (AccessClaims, error)
	ParseRefreshToken(token string) (userID uuid.UUID, jti string, err error)
	ParsePendingToken(token string) (uuid.UUID, error)
}

// AccessClaims is the identity snapshot embedded in an access token at
// issuance. It is not re-derived from the store per request; role or
// permission changes take effect on refresh or re-login.
type AccessClaims struct {
	UserID        uuid.UUID
	Email         string
	Role          Role
	TenantID      uuid.UUID
	Permissions   PermissionSet
	EmailVerified bool
	IssuedAt      time.Time
}

// Principal is the normalized identity attached to a request context after
// the authorization pipeline accepts it.
type Principal struct {
	ID            uuid.UUID
	Email         string
	Role          Role
	TenantID      uuid.UUID
	Permissions   PermissionSet
	EmailVerified bool
}
