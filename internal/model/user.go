package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LockoutThreshold is the number of consecutive failed password attempts
// after which an account is locked.
const LockoutThreshold = 5

// LockoutDuration is how long an account stays locked once the threshold
// is reached.
const LockoutDuration = 30 * time.Minute

// UserStore defines persistence operations for user credential records.
// Mutating operations are expected to be atomic at the store level so that
// concurrent logins cannot lose counter or backup-code updates.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)

	// RecordLoginFailure atomically increments the failed-attempt counter and,
	// when the counter reaches threshold, sets the lock expiry to now+lockFor.
	// It returns the post-increment counter and the lock expiry, if any.
	RecordLoginFailure(ctx context.Context, id uuid.UUID, threshold int, lockFor time.Duration) (int, *time.Time, error)

	// ResetLoginFailures clears the failure counter and the lock after a
	// successful password check, before any two-factor step completes.
	ResetLoginFailures(ctx context.Context, id uuid.UUID) error

	// RecordLoginSuccess resets the failure counter, clears the lock and
	// stamps last-login metadata.
	RecordLoginSuccess(ctx context.Context, id uuid.UUID, ip string) error

	// UpdatePassword replaces the password hash and stamps password_changed_at.
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error

	// SetTwoFactorSecret stores a provisioned TOTP secret in the disabled
	// state. Enabling happens only after the setup code is verified.
	SetTwoFactorSecret(ctx context.Context, id uuid.UUID, secret string) error

	// EnableTwoFactor flips the enabled flag and installs the backup-code
	// hash set in one statement.
	EnableTwoFactor(ctx context.Context, id uuid.UUID, codeHashes []string) error

	// DisableTwoFactor clears the secret, the backup codes and the enabled
	// flag in one statement.
	DisableTwoFactor(ctx context.Context, id uuid.UUID) error

	// ConsumeBackupCode removes codeHash from the backup-code set if present.
	// It reports whether the code was consumed and how many codes remain.
	ConsumeBackupCode(ctx context.Context, id uuid.UUID, codeHash string) (bool, int, error)

	// ReplaceBackupCodes swaps the entire backup-code set.
	ReplaceBackupCodes(ctx context.Context, id uuid.UUID, codeHashes []string) error

	// TouchTwoFactorUsed stamps the last successful two-factor verification.
	TouchTwoFactorUsed(ctx context.Context, id uuid.UUID) error
}

// User represents a stored user with credentials, tenant linkage and
// two-factor state.
type User struct {
	ID               uuid.UUID
	Email            string
	DisplayName      string
	Role             Role
	TenantID         uuid.UUID
	ClientBusinessID *uuid.UUID

	PasswordHash        string
	PermissionOverrides PermissionSet

	TwoFactorEnabled    bool
	TwoFactorSecret     string
	BackupCodeHashes    []string
	TwoFactorLastUsedAt *time.Time

	FailedLoginAttempts int
	LockedUntil         *time.Time

	IsActive      bool
	EmailVerified bool

	PasswordChangedAt time.Time
	LastLoginAt       *time.Time
	LastLoginIP       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Locked reports whether the account is locked out at the given instant.
// A lock expires on its own; expired locks are treated as absent.
func (u User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// Permissions returns the effective permission set: the role defaults with
// the per-user overrides layered on top. The defaults table is never mutated.
func (u User) Permissions() PermissionSet {
	return DefaultPermissions(u.Role).Merge(u.PermissionOverrides)
}
