package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warelock/warelock-auth/internal/model"
)

func newRefreshRepoMock(t *testing.T) (pgxmock.PgxPoolIface, *RefreshTokenRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewRefreshTokenRepository(mock)
}

func testRefreshToken() model.RefreshToken {
	return model.RefreshToken{
		ID:        uuid.New(),
		JTI:       uuid.NewString(),
		UserID:    uuid.New(),
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
		IP:        "203.0.113.9",
		UserAgent: "cli/1.0",
	}
}

func TestRefreshTokenRepository_Create_TrimsToCap(t *testing.T) {
	ctx := context.Background()
	mock, repo := newRefreshRepoMock(t)
	token := testRefreshToken()

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(token.ID, token.JTI, token.UserID, token.IssuedAt, token.ExpiresAt,
			token.IP, token.UserAgent).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// The eviction keeps the newest entries up to the session cap.
	mock.ExpectExec(`DELETE FROM refresh_tokens`).
		WithArgs(token.UserID, model.MaxRefreshTokensPerUser).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.Create(ctx, token))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Create_AssignsMissingID(t *testing.T) {
	ctx := context.Background()
	mock, repo := newRefreshRepoMock(t)
	token := testRefreshToken()
	token.ID = uuid.Nil

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), token.JTI, token.UserID, token.IssuedAt, token.ExpiresAt,
			token.IP, token.UserAgent).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM refresh_tokens`).
		WithArgs(token.UserID, model.MaxRefreshTokensPerUser).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Create(ctx, token))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Consume_Present(t *testing.T) {
	ctx := context.Background()
	mock, repo := newRefreshRepoMock(t)
	userID := uuid.New()
	jti := uuid.NewString()

	mock.ExpectExec(`DELETE FROM refresh_tokens`).
		WithArgs(userID, jti).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	consumed, err := repo.Consume(ctx, userID, jti)
	require.NoError(t, err)
	assert.True(t, consumed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Consume_AbsentOrExpired(t *testing.T) {
	ctx := context.Background()
	mock, repo := newRefreshRepoMock(t)
	userID := uuid.New()
	jti := uuid.NewString()

	// A replayed or expired token finds nothing to remove.
	mock.ExpectExec(`DELETE FROM refresh_tokens`).
		WithArgs(userID, jti).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	consumed, err := repo.Consume(ctx, userID, jti)
	require.NoError(t, err)
	assert.False(t, consumed)
	require.NoError(t, mock.ExpectationsWereMet())
}
