package middleware

import (
	"net/http"

	httpcontext "github.com/warelock/warelock-auth/internal/api/http/context"
	"github.com/warelock/warelock-auth/internal/api/http/response"
	"github.com/warelock/warelock-auth/internal/model"
)

// Guards compose on top of Authenticate.Require. Each one assumes a
// principal is already on the context and is independently stackable.

// RequireRole allows only the listed roles.
func RequireRole(errors *response.ErrorMapper, roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := httpcontext.GetPrincipal(r.Context())
			if !ok {
				errors.Write(w, model.ErrAuthenticationRequired)
				return
			}
			if _, ok := allowed[principal.Role]; !ok {
				errors.Write(w, model.ErrInsufficientPermission)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission requires the principal's permission snapshot to grant
// the action in the category. Tenant admins implicitly pass all non-client
// categories.
func RequirePermission(errors *response.ErrorMapper, category, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := httpcontext.GetPrincipal(r.Context())
			if !ok {
				errors.Write(w, model.ErrAuthenticationRequired)
				return
			}
			if principal.Role == model.RoleTenantAdmin && !model.IsClientCategory(category) {
				next.ServeHTTP(w, r)
				return
			}
			if !principal.Permissions.Allows(category, action) {
				errors.Write(w, model.ErrInsufficientPermission)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireEmailVerified rejects principals with unverified email addresses.
func RequireEmailVerified(errors *response.ErrorMapper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := httpcontext.GetPrincipal(r.Context())
			if !ok {
				errors.Write(w, model.ErrAuthenticationRequired)
				return
			}
			if !principal.EmailVerified {
				errors.Write(w, model.ErrEmailNotVerified)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// EnforceTenantIsolation restricts the request to the principal's own
// tenant. Platform admins are exempt. The tenant under access is taken from
// the X-Tenant-ID header when present; handlers downstream must scope their
// queries to the principal's tenant.
func EnforceTenantIsolation(errors *response.ErrorMapper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := httpcontext.GetPrincipal(r.Context())
			if !ok {
				errors.Write(w, model.ErrAuthenticationRequired)
				return
			}
			if principal.Role == model.RolePlatformAdmin {
				next.ServeHTTP(w, r)
				return
			}
			if requested := r.Header.Get("X-Tenant-ID"); requested != "" && requested != principal.TenantID.String() {
				errors.Write(w, model.ErrInsufficientPermission)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
