package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MaxRefreshTokensPerUser bounds concurrent sessions per user. Inserting
// beyond the cap evicts the oldest token by issuance order.
const MaxRefreshTokensPerUser = 5

// RefreshTokenStore persists the per-user refresh-token allow-list. The
// list, not the token signature, is the source of truth for revocation.
type RefreshTokenStore interface {
	// Create inserts the record and evicts the oldest entries beyond the
	// per-user cap in the same statement.
	Create(ctx context.Context, token RefreshToken) error

	// Consume deletes the record identified by jti if it is still present
	// and unexpired, reporting whether anything was removed. This is the
	// rotation primitive: a replayed token finds nothing to consume.
	Consume(ctx context.Context, userID uuid.UUID, jti string) (bool, error)

	// Delete removes one record without the expiry condition (logout).
	Delete(ctx context.Context, userID uuid.UUID, jti string) error

	// DeleteAllForUser removes every record for the user (logout-all,
	// password change, two-factor state changes).
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}

// RefreshToken is one entry in a user's refresh-token allow-list, with the
// client context captured at issuance.
type RefreshToken struct {
	ID        uuid.UUID
	JTI       string
	UserID    uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
	IP        string
	UserAgent string
	CreatedAt time.Time
}
