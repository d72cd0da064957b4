package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/warelock/warelock-auth/internal/mocks"
	"github.com/warelock/warelock-auth/internal/model"
	"github.com/warelock/warelock-auth/internal/password"
	"github.com/warelock/warelock-auth/internal/testutil"
	"github.com/warelock/warelock-auth/internal/token"
	"github.com/warelock/warelock-auth/internal/totp"
)

const testPassword = "Secret123!"

func hashFor(t *testing.T, plaintext string) string {
	t.Helper()
	h, err := password.New(bcrypt.MinCost).Hash(plaintext)
	require.NoError(t, err)
	return h
}

type authFixture struct {
	users     *mocks.UserStore
	refresh   *mocks.RefreshTokenStore
	manager   model.TokenManager
	auth      *Auth
	tokens    *TokenService
	twoFactor *TwoFactor
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := &mocks.UserStore{}
	refresh := &mocks.RefreshTokenStore{}
	log := testutil.MakeNoopLogger()
	manager := token.NewJWT(token.Config{Secret: "secret"})

	tokens := NewTokenService(manager, refresh, users, time.Hour, log)
	twoFactor := NewTwoFactor(users, tokens, totp.New(totp.Config{}), password.New(bcrypt.MinCost), log)
	auth := NewAuth(users, password.New(bcrypt.MinCost), manager, tokens, twoFactor, 5, 30*time.Minute, log)

	return &authFixture{users: users, refresh: refresh, manager: manager, auth: auth, tokens: tokens, twoFactor: twoFactor}
}

func activeUser(t *testing.T) model.User {
	return model.User{
		ID:           uuid.New(),
		Email:        "alice@x.com",
		Role:         model.RoleTenantManager,
		TenantID:     uuid.New(),
		PasswordHash: hashFor(t, testPassword),
		IsActive:     true,
	}
}

func TestAuth_Login_Success(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := activeUser(t)

	f.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(user, nil)
	f.users.On("ResetLoginFailures", mock.Anything, user.ID).Return(nil)
	f.users.On("RecordLoginSuccess", mock.Anything, user.ID, "10.0.0.1").Return(nil)
	f.refresh.On("Create", mock.Anything, mock.Anything).Return(nil)

	outcome, err := f.auth.Login(ctx, "alice@x.com", testPassword, "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.False(t, outcome.RequiresTwoFactor)
	assert.NotEmpty(t, outcome.Tokens.AccessToken)
	assert.NotEmpty(t, outcome.Tokens.RefreshToken)

	claims, err := f.manager.ParseAccessToken(outcome.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleTenantManager, claims.Role)
	assert.Equal(t, user.TenantID, claims.TenantID)
	assert.True(t, claims.Permissions.Allows(model.CategoryInventory, model.ActionView))
}

func TestAuth_Login_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	f.users.On("GetByEmail", mock.Anything, "nobody@x.com").Return(model.User{}, model.ErrNotFound)

	_, err := f.auth.Login(ctx, "nobody@x.com", testPassword, "", "")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuth_Login_InactiveAccount(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := activeUser(t)
	user.IsActive = false

	f.users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	_, err := f.auth.Login(ctx, user.Email, testPassword, "", "")
	assert.ErrorIs(t, err, model.ErrAccountInactive)
}

func TestAuth_Login_WrongPassword_BelowThreshold(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := activeUser(t)

	f.users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	// The 4th failure does not lock the account.
	f.users.On("RecordLoginFailure", mock.Anything, user.ID, 5, 30*time.Minute).Return(4, nil, nil)

	_, err := f.auth.Login(ctx, user.Email, "wrong", "", "")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuth_Login_WrongPassword_FifthFailureLocks(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := activeUser(t)
	lockedUntil := time.Now().Add(30 * time.Minute)

	f.users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	f.users.On("RecordLoginFailure", mock.Anything, user.ID, 5, 30*time.Minute).Return(5, &lockedUntil, nil)

	_, err := f.auth.Login(ctx, user.Email, "wrong", "", "")

	var locked *model.AccountLockedError
	require.ErrorAs(t, err, &locked)
	assert.Positive(t, locked.RemainingMinutes())
}

func TestAuth_Login_LockedAccount_SkipsPasswordCheck(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := activeUser(t)
	lockedUntil := time.Now().Add(10 * time.Minute)
	user.LockedUntil = &lockedUntil
	user.FailedLoginAttempts = 5

	f.users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	// Correct password is still rejected while the lock is in effect.
	_, err := f.auth.Login(ctx, user.Email, testPassword, "", "")

	var locked *model.AccountLockedError
	require.ErrorAs(t, err, &locked)
	f.users.AssertNotCalled(t, "RecordLoginFailure", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuth_Login_ExpiredLock_AllowsLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := activeUser(t)
	expired := time.Now().Add(-time.Minute)
	user.LockedUntil = &expired
	user.FailedLoginAttempts = 5

	f.users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	f.users.On("ResetLoginFailures", mock.Anything, user.ID).Return(nil)
	f.users.On("RecordLoginSuccess", mock.Anything, user.ID, "").Return(nil)
	f.refresh.On("Create", mock.Anything, mock.Anything).Return(nil)

	outcome, err := f.auth.Login(ctx, user.Email, testPassword, "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, outcome.Tokens.AccessToken)
}

func TestAuth_Login_TwoFactorBranch(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := activeUser(t)
	user.TwoFactorEnabled = true
	user.TwoFactorSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

	f.users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	f.users.On("ResetLoginFailures", mock.Anything, user.ID).Return(nil)

	outcome, err := f.auth.Login(ctx, user.Email, testPassword, "", "")
	require.NoError(t, err)
	assert.True(t, outcome.RequiresTwoFactor)
	assert.NotEmpty(t, outcome.PendingToken)
	// Correct password alone never yields usable tokens when 2FA is on.
	assert.Empty(t, outcome.Tokens.AccessToken)
	assert.Empty(t, outcome.Tokens.RefreshToken)

	pendingUserID, err := f.manager.ParsePendingToken(outcome.PendingToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, pendingUserID)

	// No login metadata is stamped before the second factor completes.
	f.users.AssertNotCalled(t, "RecordLoginSuccess", mock.Anything, mock.Anything, mock.Anything)
	f.refresh.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuth_CompleteTwoFactor_Success(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := activeUser(t)
	user.TwoFactorEnabled = true
	user.TwoFactorSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

	pending, err := f.manager.GeneratePendingToken(user.ID)
	require.NoError(t, err)

	code, err := totp.New(totp.Config{}).CodeAt(user.TwoFactorSecret, time.Now())
	require.NoError(t, err)

	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("TouchTwoFactorUsed", mock.Anything, user.ID).Return(nil)
	f.users.On("RecordLoginSuccess", mock.Anything, user.ID, "10.0.0.1").Return(nil)
	f.refresh.On("Create", mock.Anything, mock.Anything).Return(nil)

	outcome, err := f.auth.CompleteTwoFactor(ctx, user.ID, code, pending, "10.0.0.1", "agent")
	require.NoError(t, err)
	assert.NotEmpty(t, outcome.Tokens.AccessToken)
}

func TestAuth_CompleteTwoFactor_UserMismatch(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := activeUser(t)

	pending, err := f.manager.GeneratePendingToken(user.ID)
	require.NoError(t, err)

	_, err = f.auth.CompleteTwoFactor(ctx, uuid.New(), "123456", pending, "", "")
	assert.ErrorIs(t, err, model.ErrTokenMalformed)
}

func TestAuth_CompleteTwoFactor_WrongCode_PendingStillValid(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := activeUser(t)
	user.TwoFactorEnabled = true
	user.TwoFactorSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

	pending, err := f.manager.GeneratePendingToken(user.ID)
	require.NoError(t, err)

	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("ConsumeBackupCode", mock.Anything, user.ID, mock.Anything).Return(false, 0, nil)

	_, err = f.auth.CompleteTwoFactor(ctx, user.ID, "000000", pending, "", "")
	assert.ErrorIs(t, err, model.ErrInvalidTwoFactorCode)

	// A failed code does not consume the pending token.
	pendingUserID, err := f.manager.ParsePendingToken(pending)
	require.NoError(t, err)
	assert.Equal(t, user.ID, pendingUserID)
}

func TestAuth_CompleteTwoFactor_AccessTokenRejected(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := activeUser(t)

	access, err := f.manager.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = f.auth.CompleteTwoFactor(ctx, user.ID, "123456", access, "", "")
	assert.ErrorIs(t, err, model.ErrTokenMalformed)
}

func TestAuth_ChangePassword_Success(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := activeUser(t)

	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("UpdatePassword", mock.Anything, user.ID, mock.Anything).Return(nil)
	f.refresh.On("DeleteAllForUser", mock.Anything, user.ID).Return(nil)

	err := f.auth.ChangePassword(ctx, user.ID, testPassword, "NewSecret456!")
	require.NoError(t, err)

	f.refresh.AssertCalled(t, "DeleteAllForUser", mock.Anything, user.ID)
}

func TestAuth_ChangePassword_WrongCurrent(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := activeUser(t)

	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	err := f.auth.ChangePassword(ctx, user.ID, "wrong", "NewSecret456!")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}
