package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warelock/warelock-auth/internal/logger"
	"github.com/warelock/warelock-auth/internal/model"
	"github.com/warelock/warelock-auth/internal/password"
)

// LoginOutcome is the result of a login attempt. Either Tokens is set
// (login complete) or RequiresTwoFactor is true and PendingToken carries
// the short-lived intermediate credential.
type LoginOutcome struct {
	RequiresTwoFactor bool
	PendingToken      string
	Tokens            TokenPair
	User              model.User
}

// Auth orchestrates the login flow: password check, lockout policy,
// optional two-factor challenge and token issuance.
type Auth struct {
	users        model.UserStore
	hasher       *password.Hasher
	manager      model.TokenManager
	tokenService *TokenService
	twoFactor    *TwoFactor
	maxAttempts  int
	lockFor      time.Duration
	logger       *logger.Logger
}

func NewAuth(
	users model.UserStore,
	hasher *password.Hasher,
	manager model.TokenManager,
	tokenService *TokenService,
	twoFactor *TwoFactor,
	maxAttempts int,
	lockFor time.Duration,
	logger *logger.Logger,
) *Auth {
	if maxAttempts <= 0 {
		maxAttempts = model.LockoutThreshold
	}
	if lockFor <= 0 {
		lockFor = model.LockoutDuration
	}
	return &Auth{
		users:        users,
		hasher:       hasher,
		manager:      manager,
		tokenService: tokenService,
		twoFactor:    twoFactor,
		maxAttempts:  maxAttempts,
		lockFor:      lockFor,
		logger:       logger,
	}
}

// Login verifies credentials and either completes the login or returns a
// pending two-factor challenge. Unknown emails, wrong passwords and
// inactive accounts are indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, email, plaintext, ip, userAgent string) (*LoginOutcome, error) {
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			a.logger.Info("login rejected", "reason", "unknown_email")
			return nil, model.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !user.IsActive {
		a.logger.Info("login rejected", "reason", "inactive", "user_id", user.ID)
		return nil, model.ErrAccountInactive
	}

	// Lockout is checked before the password so a locked account cannot be
	// probed while the lock is in effect.
	now := time.Now()
	if user.Locked(now) {
		return nil, &model.AccountLockedError{Until: *user.LockedUntil}
	}

	ok, err := a.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		attempts, lockedUntil, recErr := a.users.RecordLoginFailure(ctx, user.ID, a.maxAttempts, a.lockFor)
		if recErr != nil {
			return nil, fmt.Errorf("failed to record login failure: %w", recErr)
		}
		if lockedUntil != nil && attempts >= a.maxAttempts {
			a.logger.Info("account locked", "user_id", user.ID, "attempts", attempts)
			return nil, &model.AccountLockedError{Until: *lockedUntil}
		}
		return nil, model.ErrInvalidCredentials
	}

	if err := a.users.ResetLoginFailures(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to reset login failures: %w", err)
	}

	if user.TwoFactorEnabled {
		pending, err := a.manager.GeneratePendingToken(user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to issue pending token: %w", err)
		}
		a.logger.Info("two-factor challenge issued", "user_id", user.ID)
		return &LoginOutcome{
			RequiresTwoFactor: true,
			PendingToken:      pending,
			User:              user,
		}, nil
	}

	return a.completeLogin(ctx, user, ip, userAgent)
}

// CompleteTwoFactor finishes a pending login. The pending token must be
// valid, unexpired and minted for the same user; the code is checked
// against the TOTP secret and then the backup-code set. A failed code
// leaves the pending token usable until its own expiry.
func (a *Auth) CompleteTwoFactor(ctx context.Context, userID uuid.UUID, code, pendingToken, ip, userAgent string) (*LoginOutcome, error) {
	pendingUserID, err := a.manager.ParsePendingToken(pendingToken)
	if err != nil {
		return nil, err
	}
	if pendingUserID != userID {
		return nil, model.ErrTokenMalformed
	}

	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if !user.IsActive {
		return nil, model.ErrAccountInactive
	}

	if _, err := a.twoFactor.Verify(ctx, user, code); err != nil {
		return nil, err
	}

	return a.completeLogin(ctx, user, ip, userAgent)
}

// ChangePassword verifies the current password, installs the new hash and
// logs the user out everywhere.
func (a *Auth) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user by id: %w", err)
	}

	ok, err := a.hasher.Verify(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return model.ErrInvalidCredentials
	}

	hash, err := a.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := a.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := a.tokenService.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	a.logger.Info("password changed, sessions revoked", "user_id", userID)
	return nil
}

func (a *Auth) completeLogin(ctx context.Context, user model.User, ip, userAgent string) (*LoginOutcome, error) {
	pair, err := a.tokenService.Issue(ctx, user, ip, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	if err := a.users.RecordLoginSuccess(ctx, user.ID, ip); err != nil {
		return nil, fmt.Errorf("failed to record login success: %w", err)
	}

	a.logger.Info("login completed", "user_id", user.ID, "role", user.Role)
	return &LoginOutcome{
		Tokens: pair,
		User:   user,
	}, nil
}
