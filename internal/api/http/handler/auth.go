package handler

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	httpcontext "github.com/warelock/warelock-auth/internal/api/http/context"
	"github.com/warelock/warelock-auth/internal/api/http/response"
	"github.com/warelock/warelock-auth/internal/logger"
	"github.com/warelock/warelock-auth/internal/model"
	"github.com/warelock/warelock-auth/internal/service"
)

// AuthService defines the login flow operations.
type AuthService interface {
	Login(ctx context.Context, email, plaintext, ip, userAgent string) (*service.LoginOutcome, error)
	CompleteTwoFactor(ctx context.Context, userID uuid.UUID, code, pendingToken, ip, userAgent string) (*service.LoginOutcome, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
}

// TokenService defines token refresh and revoke operations.
type TokenService interface {
	Refresh(ctx context.Context, presented, ip, userAgent string) (service.TokenPair, model.User, error)
	Revoke(ctx context.Context, callerID uuid.UUID, presented string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

// Auth handles the login, session and token endpoints.
type Auth struct {
	authService  AuthService
	tokenService TokenService
	errors       *response.ErrorMapper
	logger       *logger.Logger
}

func NewAuth(authService AuthService, tokenService TokenService, errors *response.ErrorMapper, logger *logger.Logger) *Auth {
	return &Auth{
		authService:  authService,
		tokenService: tokenService,
		errors:       errors,
		logger:       logger,
	}
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type userSummary struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	DisplayName      string     `json:"displayName"`
	Role             model.Role `json:"role"`
	TenantID         uuid.UUID  `json:"tenantId"`
	ClientBusinessID *uuid.UUID `json:"clientBusinessId,omitempty"`
	EmailVerified    bool       `json:"emailVerified"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
}

func summarize(u model.User) userSummary {
	return userSummary{
		ID:               u.ID,
		Email:            u.Email,
		DisplayName:      u.DisplayName,
		Role:             u.Role,
		TenantID:         u.TenantID,
		ClientBusinessID: u.ClientBusinessID,
		EmailVerified:    u.EmailVerified,
		TwoFactorEnabled: u.TwoFactorEnabled,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	RequiresTwoFactor bool               `json:"requiresTwoFactor"`
	PendingToken      string             `json:"pendingToken,omitempty"`
	UserID            string             `json:"userId,omitempty"`
	Tokens            *tokenPairResponse `json:"tokens,omitempty"`
	User              *userSummary       `json:"user,omitempty"`
}

// Login handles POST /api/auth/login.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		response.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	outcome, err := h.authService.Login(r.Context(), req.Email, req.Password, clientIP(r), r.UserAgent())
	if err != nil {
		h.errors.Write(w, err)
		return
	}

	if outcome.RequiresTwoFactor {
		response.WriteJSON(w, http.StatusOK, loginResponse{
			RequiresTwoFactor: true,
			PendingToken:      outcome.PendingToken,
			UserID:            outcome.User.ID.String(),
		})
		return
	}

	user := summarize(outcome.User)
	response.WriteJSON(w, http.StatusOK, loginResponse{
		Tokens: &tokenPairResponse{AccessToken: outcome.Tokens.AccessToken, RefreshToken: outcome.Tokens.RefreshToken},
		User:   &user,
	})
}

type loginTwoFactorRequest struct {
	UserID       string `json:"userId"`
	Token        string `json:"token"`
	PendingToken string `json:"pendingToken"`
}

// LoginTwoFactor handles POST /api/auth/login/2fa, completing a pending login.
func (h *Auth) LoginTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req loginTwoFactorRequest
	if err := decodeBody(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil || req.Token == "" || req.PendingToken == "" {
		response.WriteError(w, http.StatusBadRequest, "invalid_request", "userId, token and pendingToken are required")
		return
	}

	outcome, err := h.authService.CompleteTwoFactor(r.Context(), userID, req.Token, req.PendingToken, clientIP(r), r.UserAgent())
	if err != nil {
		h.errors.Write(w, err)
		return
	}

	user := summarize(outcome.User)
	response.WriteJSON(w, http.StatusOK, loginResponse{
		Tokens: &tokenPairResponse{AccessToken: outcome.Tokens.AccessToken, RefreshToken: outcome.Tokens.RefreshToken},
		User:   &user,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken handles POST /api/auth/token/refresh, rotating the presented
// refresh token.
func (h *Auth) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	if req.RefreshToken == "" {
		response.WriteError(w, http.StatusBadRequest, "invalid_request", "refreshToken is required")
		return
	}

	pair, _, err := h.tokenService.Refresh(r.Context(), req.RefreshToken, clientIP(r), r.UserAgent())
	if err != nil {
		h.errors.Write(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]tokenPairResponse{
		"tokens": {AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
	})
}

// Logout handles POST /api/auth/logout, revoking one refresh token.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpcontext.GetPrincipal(r.Context())
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "authentication_required", "authentication required")
		return
	}

	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	if req.RefreshToken == "" {
		response.WriteError(w, http.StatusBadRequest, "invalid_request", "refreshToken is required")
		return
	}

	if err := h.tokenService.Revoke(r.Context(), principal.ID, req.RefreshToken); err != nil {
		h.errors.Write(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, nil)
}

// LogoutAll handles POST /api/auth/logout-all, revoking every session of the
// caller.
func (h *Auth) LogoutAll(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpcontext.GetPrincipal(r.Context())
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "authentication_required", "authentication required")
		return
	}

	if err := h.tokenService.RevokeAllForUser(r.Context(), principal.ID); err != nil {
		h.errors.Write(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, nil)
}

type principalResponse struct {
	ID            uuid.UUID           `json:"id"`
	Email         string              `json:"email"`
	Role          model.Role          `json:"role"`
	TenantID      uuid.UUID           `json:"tenantId"`
	Permissions   model.PermissionSet `json:"permissions"`
	EmailVerified bool                `json:"emailVerified"`
}

// VerifySession handles GET /api/auth/session/verify, echoing the principal
// attached by the middleware. Clients use it to check token liveness.
func (h *Auth) VerifySession(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpcontext.GetPrincipal(r.Context())
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "authentication_required", "authentication required")
		return
	}

	response.WriteJSON(w, http.StatusOK, principalResponse{
		ID:            principal.ID,
		Email:         principal.Email,
		Role:          principal.Role,
		TenantID:      principal.TenantID,
		Permissions:   principal.Permissions,
		EmailVerified: principal.EmailVerified,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword handles POST /api/auth/password/change. A successful change
// logs the user out everywhere.
func (h *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpcontext.GetPrincipal(r.Context())
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "authentication_required", "authentication required")
		return
	}

	var req changePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		response.WriteError(w, http.StatusBadRequest, "invalid_request", "currentPassword and newPassword are required")
		return
	}
	if len(req.NewPassword) < 8 {
		response.WriteError(w, http.StatusBadRequest, "invalid_request", "newPassword must be at least 8 characters")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), principal.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.errors.Write(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, nil)
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
