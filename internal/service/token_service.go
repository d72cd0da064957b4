package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warelock/warelock-auth/internal/logger"
	"github.com/warelock/warelock-auth/internal/model"
)

// TokenPair is an access/refresh token pair returned to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues, refreshes and revokes token pairs. It composes the
// TokenManager with the refresh-token allow-list; the list, not the
// signature, decides whether a refresh token is still good.
type TokenService struct {
	manager    model.TokenManager
	store      model.RefreshTokenStore
	users      model.UserStore
	refreshTTL time.Duration
	logger     *logger.Logger
}

func NewTokenService(manager model.TokenManager, store model.RefreshTokenStore, users model.UserStore, refreshTTL time.Duration, logger *logger.Logger) *TokenService {
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{manager: manager, store: store, users: users, refreshTTL: refreshTTL, logger: logger}
}

// Issue creates a pair for the user and records the refresh half together
// with the client context. Insertion beyond the per-user cap evicts the
// oldest session.
func (s *TokenService) Issue(ctx context.Context, user model.User, ip, userAgent string) (TokenPair, error) {
	access, err := s.manager.GenerateAccessToken(user)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access: %w", err)
	}

	refresh, jti, err := s.manager.GenerateRefreshToken(user.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh: %w", err)
	}

	now := time.Now()
	rt := model.RefreshToken{
		ID:        uuid.New(),
		JTI:       jti,
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
		IP:        ip,
		UserAgent: userAgent,
	}

	if err := s.store.Create(ctx, rt); err != nil {
		return TokenPair{}, fmt.Errorf("persist refresh: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rotates a presented refresh token: the old entry is consumed
// atomically and a new pair is issued against the user's current role and
// permissions. A replayed pre-rotation token fails with ErrTokenRevoked.
func (s *TokenService) Refresh(ctx context.Context, presented, ip, userAgent string) (TokenPair, model.User, error) {
	userID, jti, err := s.manager.ParseRefreshToken(presented)
	if err != nil {
		return TokenPair{}, model.User{}, err
	}

	consumed, err := s.store.Consume(ctx, userID, jti)
	if err != nil {
		return TokenPair{}, model.User{}, fmt.Errorf("consume refresh: %w", err)
	}
	if !consumed {
		return TokenPair{}, model.User{}, model.ErrTokenRevoked
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return TokenPair{}, model.User{}, model.ErrTokenRevoked
		}
		return TokenPair{}, model.User{}, fmt.Errorf("load user for refresh: %w", err)
	}
	if !user.IsActive {
		return TokenPair{}, model.User{}, model.ErrAccountInactive
	}

	pair, err := s.Issue(ctx, user, ip, userAgent)
	if err != nil {
		return TokenPair{}, model.User{}, err
	}

	return pair, user, nil
}

// Revoke removes one refresh token (logout). The caller's identity must
// match the token's subject; mismatches are treated as not found.
func (s *TokenService) Revoke(ctx context.Context, callerID uuid.UUID, presented string) error {
	userID, jti, err := s.manager.ParseRefreshToken(presented)
	if err != nil {
		return err
	}
	if userID != callerID {
		return model.ErrTokenRevoked
	}
	return s.store.Delete(ctx, userID, jti)
}

// RevokeAllForUser removes every refresh token for the user (logout-all,
// password change, two-factor state changes).
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return s.store.DeleteAllForUser(ctx, userID)
}

// VerifyAccess parses and validates an access token.
func (s *TokenService) VerifyAccess(ctx context.Context, token string) (model.AccessClaims, error) {
	return s.manager.ParseAccessToken(token)
}
