// Package context carries the authenticated principal through the request
// context.
package context

import (
	"context"

	"github.com/warelock/warelock-auth/internal/model"
)

type principalKey struct{}

// SetPrincipal returns a context carrying the principal.
func SetPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// GetPrincipal retrieves the principal set by the authentication middleware.
// The second return is false on unauthenticated requests (OptionalAuth paths).
func GetPrincipal(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(model.Principal)
	return p, ok
}
