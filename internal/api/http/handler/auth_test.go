package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpcontext "github.com/warelock/warelock-auth/internal/api/http/context"
	"github.com/warelock/warelock-auth/internal/api/http/response"
	"github.com/warelock/warelock-auth/internal/model"
	"github.com/warelock/warelock-auth/internal/service"
	"github.com/warelock/warelock-auth/internal/testutil"
)

type authServiceStub struct {
	login             func(ctx context.Context, email, plaintext, ip, userAgent string) (*service.LoginOutcome, error)
	completeTwoFactor func(ctx context.Context, userID uuid.UUID, code, pendingToken, ip, userAgent string) (*service.LoginOutcome, error)
	changePassword    func(ctx context.Context, userID uuid.UUID, current, next string) error
}

func (s *authServiceStub) Login(ctx context.Context, email, plaintext, ip, userAgent string) (*service.LoginOutcome, error) {
	return s.login(ctx, email, plaintext, ip, userAgent)
}

func (s *authServiceStub) CompleteTwoFactor(ctx context.Context, userID uuid.UUID, code, pendingToken, ip, userAgent string) (*service.LoginOutcome, error) {
	return s.completeTwoFactor(ctx, userID, code, pendingToken, ip, userAgent)
}

func (s *authServiceStub) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	return s.changePassword(ctx, userID, current, next)
}

type tokenServiceStub struct {
	refresh          func(ctx context.Context, presented, ip, userAgent string) (service.TokenPair, model.User, error)
	revoke           func(ctx context.Context, callerID uuid.UUID, presented string) error
	revokeAllForUser func(ctx context.Context, userID uuid.UUID) error
}

func (s *tokenServiceStub) Refresh(ctx context.Context, presented, ip, userAgent string) (service.TokenPair, model.User, error) {
	return s.refresh(ctx, presented, ip, userAgent)
}

func (s *tokenServiceStub) Revoke(ctx context.Context, callerID uuid.UUID, presented string) error {
	return s.revoke(ctx, callerID, presented)
}

func (s *tokenServiceStub) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return s.revokeAllForUser(ctx, userID)
}

func newAuthHandler(auth AuthService, tokens TokenService) *Auth {
	log := testutil.MakeNoopLogger()
	return NewAuth(auth, tokens, response.NewErrorMapper(false, log), log)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func authedRequest(method, target, body string, principal model.Principal) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(httpcontext.SetPrincipal(req.Context(), principal))
}

func TestAuth_Login_Success(t *testing.T) {
	user := model.User{
		ID:            uuid.New(),
		Email:         "alice@x.com",
		DisplayName:   "Alice",
		Role:          model.RoleTenantStaff,
		TenantID:      uuid.New(),
		EmailVerified: true,
	}

	h := newAuthHandler(&authServiceStub{
		login: func(_ context.Context, email, plaintext, ip, userAgent string) (*service.LoginOutcome, error) {
			assert.Equal(t, "alice@x.com", email)
			assert.Equal(t, "secret-pass", plaintext)
			assert.Equal(t, "203.0.113.5", ip)
			return &service.LoginOutcome{
				Tokens: service.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
				User:   user,
			}, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"alice@x.com","password":"secret-pass"}`))
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	require.Nil(t, env.Error)

	var data loginResponse
	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.False(t, data.RequiresTwoFactor)
	require.NotNil(t, data.Tokens)
	assert.Equal(t, "access", data.Tokens.AccessToken)
	require.NotNil(t, data.User)
	assert.Equal(t, user.ID, data.User.ID)
	assert.Empty(t, data.PendingToken)
}

func TestAuth_Login_TwoFactorBranch(t *testing.T) {
	user := model.User{ID: uuid.New(), Email: "alice@x.com", TwoFactorEnabled: true}

	h := newAuthHandler(&authServiceStub{
		login: func(context.Context, string, string, string, string) (*service.LoginOutcome, error) {
			return &service.LoginOutcome{
				RequiresTwoFactor: true,
				PendingToken:      "pending-jwt",
				User:              user,
			}, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"alice@x.com","password":"secret-pass"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	var data loginResponse
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.True(t, data.RequiresTwoFactor)
	assert.Equal(t, "pending-jwt", data.PendingToken)
	assert.Equal(t, user.ID.String(), data.UserID)
	assert.Nil(t, data.Tokens, "no session tokens before the second factor")
}

func TestAuth_Login_InvalidCredentials(t *testing.T) {
	h := newAuthHandler(&authServiceStub{
		login: func(context.Context, string, string, string, string) (*service.LoginOutcome, error) {
			return nil, model.ErrInvalidCredentials
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"alice@x.com","password":"wrong"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_credentials", env.Error.Code)
}

func TestAuth_Login_LockedAccount(t *testing.T) {
	h := newAuthHandler(&authServiceStub{
		login: func(context.Context, string, string, string, string) (*service.LoginOutcome, error) {
			return nil, &model.AccountLockedError{Until: time.Now().Add(30 * time.Minute)}
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"alice@x.com","password":"wrong"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "account_locked", env.Error.Code)
	assert.Contains(t, env.Error.Message, "minutes")
}

func TestAuth_Login_BadRequests(t *testing.T) {
	h := newAuthHandler(&authServiceStub{
		login: func(context.Context, string, string, string, string) (*service.LoginOutcome, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"email": `},
		{name: "unknown field", body: `{"email":"a@x.com","password":"p","extra":true}`},
		{name: "missing password", body: `{"email":"a@x.com"}`},
		{name: "blank email", body: `{"email":"   ","password":"p"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Login(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, decodeEnvelope(t, rec).Success)
		})
	}
}

func TestAuth_LoginTwoFactor_Success(t *testing.T) {
	userID := uuid.New()
	user := model.User{ID: userID, Email: "alice@x.com", TwoFactorEnabled: true}

	h := newAuthHandler(&authServiceStub{
		completeTwoFactor: func(_ context.Context, gotID uuid.UUID, code, pendingToken, _, _ string) (*service.LoginOutcome, error) {
			assert.Equal(t, userID, gotID)
			assert.Equal(t, "123456", code)
			assert.Equal(t, "pending-jwt", pendingToken)
			return &service.LoginOutcome{
				Tokens: service.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
				User:   user,
			}, nil
		},
	}, nil)

	body := `{"userId":"` + userID.String() + `","token":"123456","pendingToken":"pending-jwt"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login/2fa", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.LoginTwoFactor(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
}

func TestAuth_LoginTwoFactor_WrongCode(t *testing.T) {
	h := newAuthHandler(&authServiceStub{
		completeTwoFactor: func(context.Context, uuid.UUID, string, string, string, string) (*service.LoginOutcome, error) {
			return nil, model.ErrInvalidTwoFactorCode
		},
	}, nil)

	body := `{"userId":"` + uuid.NewString() + `","token":"000000","pendingToken":"pending-jwt"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login/2fa", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.LoginTwoFactor(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_two_factor_code", env.Error.Code)
}

func TestAuth_LoginTwoFactor_BadUserID(t *testing.T) {
	h := newAuthHandler(&authServiceStub{}, nil)

	body := `{"userId":"not-a-uuid","token":"123456","pendingToken":"pending-jwt"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login/2fa", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.LoginTwoFactor(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_RefreshToken(t *testing.T) {
	h := newAuthHandler(nil, &tokenServiceStub{
		refresh: func(_ context.Context, presented, _, _ string) (service.TokenPair, model.User, error) {
			assert.Equal(t, "old-refresh", presented)
			return service.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, model.User{}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/token/refresh", strings.NewReader(`{"refreshToken":"old-refresh"}`))
	rec := httptest.NewRecorder()

	h.RefreshToken(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	var data map[string]tokenPairResponse
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.Equal(t, "new-refresh", data["tokens"].RefreshToken)
}

func TestAuth_RefreshToken_Replay(t *testing.T) {
	h := newAuthHandler(nil, &tokenServiceStub{
		refresh: func(context.Context, string, string, string) (service.TokenPair, model.User, error) {
			return service.TokenPair{}, model.User{}, model.ErrTokenRevoked
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/token/refresh", strings.NewReader(`{"refreshToken":"stolen"}`))
	rec := httptest.NewRecorder()

	h.RefreshToken(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "token_revoked", env.Error.Code)
}

func TestAuth_Logout(t *testing.T) {
	principal := model.Principal{ID: uuid.New()}

	var revokedToken string
	h := newAuthHandler(nil, &tokenServiceStub{
		revoke: func(_ context.Context, callerID uuid.UUID, presented string) error {
			assert.Equal(t, principal.ID, callerID)
			revokedToken = presented
			return nil
		},
	})

	req := authedRequest(http.MethodPost, "/api/auth/logout", `{"refreshToken":"refresh"}`, principal)
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "refresh", revokedToken)
}

func TestAuth_Logout_NoPrincipal(t *testing.T) {
	h := newAuthHandler(nil, &tokenServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", strings.NewReader(`{"refreshToken":"refresh"}`))
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_LogoutAll(t *testing.T) {
	principal := model.Principal{ID: uuid.New()}

	var revokedFor uuid.UUID
	h := newAuthHandler(nil, &tokenServiceStub{
		revokeAllForUser: func(_ context.Context, userID uuid.UUID) error {
			revokedFor = userID
			return nil
		},
	})

	req := authedRequest(http.MethodPost, "/api/auth/logout-all", "", principal)
	rec := httptest.NewRecorder()

	h.LogoutAll(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, principal.ID, revokedFor)
}

func TestAuth_VerifySession(t *testing.T) {
	principal := model.Principal{
		ID:            uuid.New(),
		Email:         "alice@x.com",
		Role:          model.RoleTenantManager,
		TenantID:      uuid.New(),
		Permissions:   model.DefaultPermissions(model.RoleTenantManager),
		EmailVerified: true,
	}

	h := newAuthHandler(nil, nil)

	req := authedRequest(http.MethodGet, "/api/auth/session/verify", "", principal)
	rec := httptest.NewRecorder()

	h.VerifySession(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	var data principalResponse
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.Equal(t, principal.ID, data.ID)
	assert.Equal(t, principal.Role, data.Role)
	assert.True(t, data.Permissions.Allows(model.CategoryInventory, model.ActionView))
}

func TestAuth_ChangePassword(t *testing.T) {
	principal := model.Principal{ID: uuid.New()}

	h := newAuthHandler(&authServiceStub{
		changePassword: func(_ context.Context, userID uuid.UUID, current, next string) error {
			assert.Equal(t, principal.ID, userID)
			assert.Equal(t, "old-pass", current)
			assert.Equal(t, "new-pass-123", next)
			return nil
		},
	}, nil)

	req := authedRequest(http.MethodPost, "/api/auth/password/change", `{"currentPassword":"old-pass","newPassword":"new-pass-123"}`, principal)
	rec := httptest.NewRecorder()

	h.ChangePassword(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_ChangePassword_TooShort(t *testing.T) {
	h := newAuthHandler(&authServiceStub{
		changePassword: func(context.Context, uuid.UUID, string, string) error {
			t.Fatal("service must not be called")
			return nil
		},
	}, nil)

	req := authedRequest(http.MethodPost, "/api/auth/password/change", `{"currentPassword":"old","newPassword":"short"}`, model.Principal{ID: uuid.New()})
	rec := httptest.NewRecorder()

	h.ChangePassword(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_ChangePassword_WrongCurrent(t *testing.T) {
	h := newAuthHandler(&authServiceStub{
		changePassword: func(context.Context, uuid.UUID, string, string) error {
			return model.ErrInvalidCredentials
		},
	}, nil)

	req := authedRequest(http.MethodPost, "/api/auth/password/change", `{"currentPassword":"wrong","newPassword":"new-pass-123"}`, model.Principal{ID: uuid.New()})
	rec := httptest.NewRecorder()

	h.ChangePassword(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
