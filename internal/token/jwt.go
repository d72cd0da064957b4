package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/warelock/warelock-auth/internal/model"
)

// Claims represents JWT claims for all three token kinds. Access tokens
// carry the full identity snapshot; refresh and pending tokens carry only
// the user ID.
type Claims struct {
	jwt.RegisteredClaims
	UserID        uuid.UUID           `json:"user_id"`
	TokenType     string              `json:"typ"`
	Email         string              `json:"email,omitempty"`
	Role          model.Role          `json:"role,omitempty"`
	TenantID      uuid.UUID           `json:"tenant_id,omitempty"`
	Permissions   model.PermissionSet `json:"permissions,omitempty"`
	EmailVerified bool                `json:"email_verified,omitempty"`
}

// JWT implements model.TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	pendingTTL time.Duration
}

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
	typePending = "2fa_required"
)

// Config holds token lifetimes and the signing secret.
type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	PendingTTL time.Duration
}

// NewJWT creates a new JWT token manager from the given config, applying
// the standard lifetimes where unset (15 m access, 7 d refresh, 10 m
// pending two-factor).
func NewJWT(cfg Config) model.TokenManager {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = 10 * time.Minute
	}
	return &JWT{
		secretKey:  cfg.Secret,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		pendingTTL: cfg.PendingTTL,
	}
}

// GenerateAccessToken creates a short-lived access token embedding the
// user's role, tenant and effective permissions at issuance time.
func (j *JWT) GenerateAccessToken(user model.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
		},
		UserID:        user.ID,
		TokenType:     typeAccess,
		Email:         user.Email,
		Role:          user.Role,
		TenantID:      user.TenantID,
		Permissions:   user.Permissions(),
		EmailVerified: user.EmailVerified,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// GenerateRefreshToken creates a long-lived refresh token and returns its JTI.
func (j *JWT) GenerateRefreshToken(userID uuid.UUID) (string, string, error) {
	now := time.Now()
	jti := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.refreshTTL)),
		},
		UserID:    userID,
		TokenType: typeRefresh,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return tokenString, jti, nil
}

// GeneratePendingToken creates the short-lived intermediate token issued
// between password verification and two-factor verification.
func (j *JWT) GeneratePendingToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.pendingTTL)),
		},
		UserID:    userID,
		TokenType: typePending,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign pending token: %w", err)
	}

	return tokenString, nil
}

// ParseAccessToken validates an access token and returns the embedded
// identity snapshot. Expiry maps to model.ErrTokenExpired so callers can
// tell clients to refresh; every other failure maps to ErrTokenMalformed.
func (j *JWT) ParseAccessToken(tokenString string) (model.AccessClaims, error) {
	claims, err := j.parse(tokenString, typeAccess)
	if err != nil {
		return model.AccessClaims{}, err
	}
	// The role set is closed; a token minted with anything else is rejected
	// outright rather than resolved to an empty permission set.
	if !claims.Role.Valid() {
		return model.AccessClaims{}, model.ErrTokenMalformed
	}

	snapshot := model.AccessClaims{
		UserID:        claims.UserID,
		Email:         claims.Email,
		Role:          claims.Role,
		TenantID:      claims.TenantID,
		Permissions:   claims.Permissions,
		EmailVerified: claims.EmailVerified,
	}
	if claims.IssuedAt != nil {
		snapshot.IssuedAt = claims.IssuedAt.Time
	}
	return snapshot, nil
}

// ParseRefreshToken validates a refresh token and returns the user ID and JTI.
func (j *JWT) ParseRefreshToken(tokenString string) (uuid.UUID, string, error) {
	claims, err := j.parse(tokenString, typeRefresh)
	if err != nil {
		return uuid.Nil, "", err
	}
	return claims.UserID, claims.ID, nil
}

// ParsePendingToken validates a pending two-factor token and returns the
// user ID it was minted for.
func (j *JWT) ParsePendingToken(tokenString string) (uuid.UUID, error) {
	claims, err := j.parse(tokenString, typePending)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}

func (j *JWT) parse(tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, model.ErrTokenMalformed
	}
	if !token.Valid {
		return nil, model.ErrTokenMalformed
	}
	if claims.TokenType != wantType {
		return nil, model.ErrTokenMalformed
	}
	return claims, nil
}
