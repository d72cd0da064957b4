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
	"github.com/warelock/warelock-auth/internal/totp"
)

// SetupResult is returned by Setup: the raw secret for manual entry, the
// otpauth URI and a rendered QR image.
type SetupResult struct {
	Secret          string
	ProvisioningURI string
	QRImage         string
}

// VerifyResult reports how a two-factor code was accepted.
type VerifyResult struct {
	Verified             bool
	UsedBackupCode       bool
	RemainingBackupCodes int
}

// TwoFactor manages TOTP enrollment, verification and backup codes.
// Security-relevant state changes (enable, disable) revoke all sessions.
type TwoFactor struct {
	users        model.UserStore
	tokenService *TokenService
	engine       *totp.Engine
	hasher       *password.Hasher
	logger       *logger.Logger
}

func NewTwoFactor(users model.UserStore, tokenService *TokenService, engine *totp.Engine, hasher *password.Hasher, logger *logger.Logger) *TwoFactor {
	return &TwoFactor{
		users:        users,
		tokenService: tokenService,
		engine:       engine,
		hasher:       hasher,
		logger:       logger,
	}
}

// Setup provisions a new secret in the disabled state. Nothing is enabled
// until the user proves possession of the secret via VerifySetup.
func (t *TwoFactor) Setup(ctx context.Context, userID uuid.UUID) (*SetupResult, error) {
	user, err := t.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if user.TwoFactorEnabled {
		return nil, model.ErrTwoFactorAlreadyEnabled
	}

	secret, err := t.engine.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}

	if err := t.users.SetTwoFactorSecret(ctx, userID, secret); err != nil {
		return nil, fmt.Errorf("failed to store secret: %w", err)
	}

	uri := t.engine.ProvisioningURI(secret, user.Email)
	qr, err := t.engine.QRCodePNG(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}

	return &SetupResult{
		Secret:          secret,
		ProvisioningURI: uri,
		QRImage:         qr,
	}, nil
}

// VerifySetup confirms the candidate code against the provisioned secret
// and enables two-factor. The returned backup codes are shown in plaintext
// exactly once; all existing sessions are revoked.
func (t *TwoFactor) VerifySetup(ctx context.Context, userID uuid.UUID, code string) ([]string, error) {
	user, err := t.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if user.TwoFactorEnabled {
		return nil, model.ErrTwoFactorAlreadyEnabled
	}
	if user.TwoFactorSecret == "" {
		return nil, model.ErrTwoFactorNotProvisioned
	}

	ok, err := t.engine.VerifyCode(user.TwoFactorSecret, code, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to verify code: %w", err)
	}
	if !ok {
		return nil, model.ErrInvalidTwoFactorCode
	}

	codes, hashes, err := t.engine.GenerateBackupCodes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate backup codes: %w", err)
	}

	if err := t.users.EnableTwoFactor(ctx, userID, hashes); err != nil {
		return nil, fmt.Errorf("failed to enable two-factor: %w", err)
	}

	if err := t.tokenService.RevokeAllForUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to revoke sessions: %w", err)
	}

	t.logger.Info("two-factor enabled, sessions revoked", "user_id", userID)
	return codes, nil
}

// Verify checks a candidate against the TOTP secret first and falls back
// to the backup-code set. A matched backup code is consumed; a TOTP code
// is reusable within its own time step. Failure leaves no state changes
// and does not reveal which path was attempted.
func (t *TwoFactor) Verify(ctx context.Context, user model.User, code string) (VerifyResult, error) {
	if !user.TwoFactorEnabled || user.TwoFactorSecret == "" {
		return VerifyResult{}, model.ErrTwoFactorNotEnabled
	}

	ok, err := t.engine.VerifyCode(user.TwoFactorSecret, code, time.Now())
	if err != nil {
		return VerifyResult{}, fmt.Errorf("failed to verify code: %w", err)
	}
	if ok {
		if err := t.users.TouchTwoFactorUsed(ctx, user.ID); err != nil {
			return VerifyResult{}, fmt.Errorf("failed to touch two-factor usage: %w", err)
		}
		return VerifyResult{
			Verified:             true,
			RemainingBackupCodes: len(user.BackupCodeHashes),
		}, nil
	}

	// Hashes are salted, so the candidate is matched against the user's
	// stored set and consumed by the exact stored value. The conditional
	// removal in the store keeps the code single-use under concurrency.
	var matched string
	for _, stored := range user.BackupCodeHashes {
		if totp.MatchBackupCode(stored, code) {
			matched = stored
			break
		}
	}
	if matched == "" {
		return VerifyResult{}, model.ErrInvalidTwoFactorCode
	}

	consumed, remaining, err := t.users.ConsumeBackupCode(ctx, user.ID, matched)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("failed to consume backup code: %w", err)
	}
	if !consumed {
		return VerifyResult{}, model.ErrInvalidTwoFactorCode
	}

	if err := t.users.TouchTwoFactorUsed(ctx, user.ID); err != nil {
		return VerifyResult{}, fmt.Errorf("failed to touch two-factor usage: %w", err)
	}

	t.logger.Info("backup code consumed", "user_id", user.ID, "remaining", remaining)
	return VerifyResult{
		Verified:             true,
		UsedBackupCode:       true,
		RemainingBackupCodes: remaining,
	}, nil
}

// VerifyByID is the public mid-login verification path used before a
// principal exists on the request.
func (t *TwoFactor) VerifyByID(ctx context.Context, userID uuid.UUID, code string) (VerifyResult, error) {
	user, err := t.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return VerifyResult{}, model.ErrInvalidTwoFactorCode
		}
		return VerifyResult{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return t.Verify(ctx, user, code)
}

// Disable turns two-factor off after a fresh password and code check, then
// revokes all sessions. Secret, backup codes and the flag clear together.
func (t *TwoFactor) Disable(ctx context.Context, userID uuid.UUID, plaintext, code string) error {
	user, err := t.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user by id: %w", err)
	}
	if !user.TwoFactorEnabled {
		return model.ErrTwoFactorNotEnabled
	}

	ok, err := t.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return model.ErrInvalidCredentials
	}

	if _, err := t.Verify(ctx, user, code); err != nil {
		return err
	}

	if err := t.users.DisableTwoFactor(ctx, userID); err != nil {
		return fmt.Errorf("failed to disable two-factor: %w", err)
	}

	if err := t.tokenService.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	t.logger.Info("two-factor disabled, sessions revoked", "user_id", userID)
	return nil
}

// RegenerateBackupCodes replaces the whole backup-code set. It requires a
// fresh password confirmation but deliberately not a TOTP code, since it
// exists for users who lost their codes.
func (t *TwoFactor) RegenerateBackupCodes(ctx context.Context, userID uuid.UUID, plaintext string) ([]string, error) {
	user, err := t.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if !user.TwoFactorEnabled {
		return nil, model.ErrTwoFactorNotEnabled
	}

	ok, err := t.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, model.ErrInvalidCredentials
	}

	codes, hashes, err := t.engine.GenerateBackupCodes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate backup codes: %w", err)
	}

	if err := t.users.ReplaceBackupCodes(ctx, userID, hashes); err != nil {
		return nil, fmt.Errorf("failed to replace backup codes: %w", err)
	}

	t.logger.Info("backup codes regenerated", "user_id", userID)
	return codes, nil
}
