// Package router wires handlers and middleware into the HTTP surface.
package router

import (
	"net/http"

	"github.com/warelock/warelock-auth/internal/api/http/handler"
	"github.com/warelock/warelock-auth/internal/api/http/middleware"
	"github.com/warelock/warelock-auth/internal/api/http/response"
)

// Router assembles the authentication API.
type Router struct {
	auth         *handler.Auth
	twoFactor    *handler.TwoFactor
	health       *handler.Health
	authenticate *middleware.Authenticate
	logging      *middleware.Logging
	rateLimit    *middleware.RateLimit
	errors       *response.ErrorMapper
}

func New(
	auth *handler.Auth,
	twoFactor *handler.TwoFactor,
	health *handler.Health,
	authenticate *middleware.Authenticate,
	logging *middleware.Logging,
	rateLimit *middleware.RateLimit,
	errors *response.ErrorMapper,
) *Router {
	return &Router{
		auth:         auth,
		twoFactor:    twoFactor,
		health:       health,
		authenticate: authenticate,
		logging:      logging,
		rateLimit:    rateLimit,
		errors:       errors,
	}
}

// Handler builds the route table. Login and two-factor verification are
// public but rate limited; everything else under /api/auth requires a
// bearer token.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	throttled := rt.rateLimit.Handle
	authed := rt.authenticate.Require

	mux.Handle("POST /api/auth/login", throttled(http.HandlerFunc(rt.auth.Login)))
	mux.Handle("POST /api/auth/login/2fa", throttled(http.HandlerFunc(rt.auth.LoginTwoFactor)))
	mux.Handle("POST /api/auth/token/refresh", http.HandlerFunc(rt.auth.RefreshToken))
	mux.Handle("POST /api/auth/logout", authed(http.HandlerFunc(rt.auth.Logout)))
	mux.Handle("POST /api/auth/logout-all", authed(http.HandlerFunc(rt.auth.LogoutAll)))
	mux.Handle("GET /api/auth/session/verify", authed(http.HandlerFunc(rt.auth.VerifySession)))
	mux.Handle("POST /api/auth/password/change", authed(http.HandlerFunc(rt.auth.ChangePassword)))

	emailVerified := middleware.RequireEmailVerified(rt.errors)
	mux.Handle("GET /api/auth/2fa/setup", authed(emailVerified(http.HandlerFunc(rt.twoFactor.Setup))))
	mux.Handle("POST /api/auth/2fa/verify-setup", authed(http.HandlerFunc(rt.twoFactor.VerifySetup)))
	mux.Handle("POST /api/auth/2fa/verify", throttled(http.HandlerFunc(rt.twoFactor.Verify)))
	mux.Handle("POST /api/auth/2fa/disable", authed(http.HandlerFunc(rt.twoFactor.Disable)))
	mux.Handle("POST /api/auth/2fa/regenerate-backup-codes", authed(http.HandlerFunc(rt.twoFactor.RegenerateBackupCodes)))

	mux.Handle("GET /healthz", http.HandlerFunc(rt.health.Check))

	return rt.logging.Handle(mux)
}
