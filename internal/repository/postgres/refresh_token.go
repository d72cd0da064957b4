package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/warelock/warelock-auth/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	db DB
}

func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create inserts the record, then trims the user's list down to the cap,
// keeping the newest entries by issuance order.
func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	const insert = `
		INSERT INTO refresh_tokens (id, jti, user_id, issued_at, expires_at, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, insert,
		token.ID, token.JTI, token.UserID, token.IssuedAt, token.ExpiresAt,
		token.IP, token.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	const evict = `
		DELETE FROM refresh_tokens
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM refresh_tokens
			WHERE user_id = $1
			ORDER BY issued_at DESC, created_at DESC
			LIMIT $2
		)
	`
	if _, err := r.db.Exec(ctx, evict, token.UserID, model.MaxRefreshTokensPerUser); err != nil {
		return fmt.Errorf("failed to evict refresh tokens: %w", err)
	}

	return nil
}

// Consume is the rotation primitive: the conditional delete is the
// linearization point, so a replayed token finds nothing to remove.
func (r *RefreshTokenRepository) Consume(ctx context.Context, userID uuid.UUID, jti string) (bool, error) {
	const query = `
		DELETE FROM refresh_tokens
		WHERE user_id = $1 AND jti = $2 AND expires_at > now()
	`
	tag, err := r.db.Exec(ctx, query, userID, jti)
	if err != nil {
		return false, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, userID uuid.UUID, jti string) error {
	const query = `DELETE FROM refresh_tokens WHERE user_id = $1 AND jti = $2`
	if _, err := r.db.Exec(ctx, query, userID, jti); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	const query = `DELETE FROM refresh_tokens WHERE user_id = $1`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete refresh tokens by user: %w", err)
	}
	return nil
}
