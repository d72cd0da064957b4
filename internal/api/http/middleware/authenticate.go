package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	httpcontext "github.com/warelock/warelock-auth/internal/api/http/context"
	"github.com/warelock/warelock-auth/internal/api/http/response"
	"github.com/warelock/warelock-auth/internal/logger"
	"github.com/warelock/warelock-auth/internal/model"
)

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	VerifyAccess(ctx context.Context, token string) (model.AccessClaims, error)
}

// Authenticate runs the per-request authorization pipeline: bearer token,
// signature and expiry, user liveness, password-change cutoff, tenant
// status. On success it attaches the principal to the request context.
type Authenticate struct {
	tokens  TokenVerifier
	users   model.UserStore
	tenants model.TenantStore
	errors  *response.ErrorMapper
	logger  *logger.Logger
}

func NewAuthenticate(tokens TokenVerifier, users model.UserStore, tenants model.TenantStore, errors *response.ErrorMapper, logger *logger.Logger) *Authenticate {
	return &Authenticate{
		tokens:  tokens,
		users:   users,
		tenants: tenants,
		errors:  errors,
		logger:  logger,
	}
}

// Require wraps a handler so that only authenticated requests reach it.
func (m *Authenticate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.resolve(r)
		if err != nil {
			m.errors.Write(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(httpcontext.SetPrincipal(r.Context(), principal)))
	})
}

// Optional runs the same pipeline but never rejects: an absent or invalid
// token simply leaves no principal on the context.
func (m *Authenticate) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.resolve(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(httpcontext.SetPrincipal(r.Context(), principal)))
	})
}

func (m *Authenticate) resolve(r *http.Request) (model.Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return model.Principal{}, model.ErrAuthenticationRequired
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	claims, err := m.tokens.VerifyAccess(r.Context(), tokenString)
	if err != nil {
		return model.Principal{}, err
	}

	// Re-load the user so a deactivated account cannot ride out a
	// still-valid token. Only a genuinely missing user downgrades to an
	// auth failure; store outages must not masquerade as bad tokens.
	user, err := m.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Principal{}, model.ErrTokenMalformed
		}
		return model.Principal{}, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return model.Principal{}, model.ErrTokenMalformed
	}

	// A password change logs the user out everywhere, even before the
	// access token's natural expiry.
	if user.PasswordChangedAt.After(claims.IssuedAt) {
		return model.Principal{}, model.ErrTokenExpired
	}

	if user.Role != model.RolePlatformAdmin {
		tenant, err := m.tenants.GetByID(r.Context(), user.TenantID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.Principal{}, model.ErrTenantSuspended
			}
			return model.Principal{}, fmt.Errorf("failed to load tenant: %w", err)
		}
		if tenant.Status != model.TenantActive {
			return model.Principal{}, model.ErrTenantSuspended
		}
	}

	return model.Principal{
		ID:            claims.UserID,
		Email:         claims.Email,
		Role:          claims.Role,
		TenantID:      claims.TenantID,
		Permissions:   claims.Permissions,
		EmailVerified: claims.EmailVerified,
	}, nil
}
