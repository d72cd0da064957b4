package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/warelock/warelock-auth/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

const userColumns = `id, email, display_name, role, tenant_id, client_business_id,
	password_hash, permission_overrides, two_factor_enabled, two_factor_secret,
	backup_code_hashes, two_factor_last_used_at, failed_login_attempts, locked_until,
	is_active, email_verified, password_changed_at, last_login_at, last_login_ip,
	created_at, updated_at`

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := r.scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := r.scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// RecordLoginFailure runs the increment and the conditional lock in one
// statement so concurrent failures cannot lose updates.
func (r *UserRepository) RecordLoginFailure(ctx context.Context, id uuid.UUID, threshold int, lockFor time.Duration) (int, *time.Time, error) {
	const query = `
		UPDATE users SET
			failed_login_attempts = failed_login_attempts + 1,
			locked_until = CASE
				WHEN failed_login_attempts + 1 >= $2 THEN now() + make_interval(secs => $3)
				ELSE locked_until
			END,
			updated_at = now()
		WHERE id = $1
		RETURNING failed_login_attempts, locked_until
	`

	var attempts int
	var lockedUntil *time.Time
	err := r.db.QueryRow(ctx, query, id, threshold, lockFor.Seconds()).Scan(&attempts, &lockedUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, model.ErrNotFound
		}
		return 0, nil, fmt.Errorf("failed to record login failure: %w", err)
	}
	return attempts, lockedUntil, nil
}

func (r *UserRepository) ResetLoginFailures(ctx context.Context, id uuid.UUID) error {
	const query = `
		UPDATE users SET failed_login_attempts = 0, locked_until = NULL, updated_at = now()
		WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to reset login failures: %w", err)
	}
	return nil
}

func (r *UserRepository) RecordLoginSuccess(ctx context.Context, id uuid.UUID, ip string) error {
	const query = `
		UPDATE users SET
			failed_login_attempts = 0,
			locked_until = NULL,
			last_login_at = now(),
			last_login_ip = $2,
			updated_at = now()
		WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id, ip); err != nil {
		return fmt.Errorf("failed to record login success: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	const query = `
		UPDATE users SET password_hash = $2, password_changed_at = now(), updated_at = now()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetTwoFactorSecret(ctx context.Context, id uuid.UUID, secret string) error {
	const query = `
		UPDATE users SET
			two_factor_secret = $2,
			two_factor_enabled = FALSE,
			backup_code_hashes = '{}',
			updated_at = now()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, secret)
	if err != nil {
		return fmt.Errorf("failed to set two-factor secret: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// EnableTwoFactor refuses to enable when no secret has been provisioned,
// preserving the invariant that enabled implies a secret.
func (r *UserRepository) EnableTwoFactor(ctx context.Context, id uuid.UUID, codeHashes []string) error {
	const query = `
		UPDATE users SET
			two_factor_enabled = TRUE,
			backup_code_hashes = $2,
			updated_at = now()
		WHERE id = $1 AND two_factor_secret <> ''
	`
	tag, err := r.db.Exec(ctx, query, id, codeHashes)
	if err != nil {
		return fmt.Errorf("failed to enable two-factor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTwoFactorNotProvisioned
	}
	return nil
}

func (r *UserRepository) DisableTwoFactor(ctx context.Context, id uuid.UUID) error {
	const query = `
		UPDATE users SET
			two_factor_enabled = FALSE,
			two_factor_secret = '',
			backup_code_hashes = '{}',
			two_factor_last_used_at = NULL,
			updated_at = now()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to disable two-factor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ConsumeBackupCode removes the code hash only if it is still present, so
// two concurrent uses of the same code succeed at most once.
func (r *UserRepository) ConsumeBackupCode(ctx context.Context, id uuid.UUID, codeHash string) (bool, int, error) {
	const query = `
		UPDATE users SET
			backup_code_hashes = array_remove(backup_code_hashes, $2),
			updated_at = now()
		WHERE id = $1 AND two_factor_enabled AND $2 = ANY (backup_code_hashes)
		RETURNING cardinality(backup_code_hashes)
	`

	var remaining int
	err := r.db.QueryRow(ctx, query, id, codeHash).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("failed to consume backup code: %w", err)
	}
	return true, remaining, nil
}

func (r *UserRepository) ReplaceBackupCodes(ctx context.Context, id uuid.UUID, codeHashes []string) error {
	const query = `
		UPDATE users SET backup_code_hashes = $2, updated_at = now()
		WHERE id = $1 AND two_factor_enabled
	`
	tag, err := r.db.Exec(ctx, query, id, codeHashes)
	if err != nil {
		return fmt.Errorf("failed to replace backup codes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTwoFactorNotEnabled
	}
	return nil
}

func (r *UserRepository) TouchTwoFactorUsed(ctx context.Context, id uuid.UUID) error {
	const query = `
		UPDATE users SET two_factor_last_used_at = now(), updated_at = now()
		WHERE id = $1
	`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to touch two-factor usage: %w", err)
	}
	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	var overrides []byte

	err := row.Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.Role, &user.TenantID, &user.ClientBusinessID,
		&user.PasswordHash, &overrides, &user.TwoFactorEnabled, &user.TwoFactorSecret,
		&user.BackupCodeHashes, &user.TwoFactorLastUsedAt, &user.FailedLoginAttempts, &user.LockedUntil,
		&user.IsActive, &user.EmailVerified, &user.PasswordChangedAt, &user.LastLoginAt, &user.LastLoginIP,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}

	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &user.PermissionOverrides); err != nil {
			return model.User{}, fmt.Errorf("failed to decode permission overrides: %w", err)
		}
	}

	return user, nil
}
