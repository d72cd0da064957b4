package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/warelock/warelock-auth/internal/api/http/handler"
	"github.com/warelock/warelock-auth/internal/api/http/middleware"
	"github.com/warelock/warelock-auth/internal/api/http/response"
	"github.com/warelock/warelock-auth/internal/api/http/router"
	"github.com/warelock/warelock-auth/internal/config"
	"github.com/warelock/warelock-auth/internal/logger"
	"github.com/warelock/warelock-auth/internal/password"
	"github.com/warelock/warelock-auth/internal/repository/postgres"
	"github.com/warelock/warelock-auth/internal/server"
	"github.com/warelock/warelock-auth/internal/service"
	"github.com/warelock/warelock-auth/internal/telemetry"
	"github.com/warelock/warelock-auth/internal/token"
	"github.com/warelock/warelock-auth/internal/totp"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	shutdownTelemetry := telemetry.Setup("warelock-auth", logger)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(flushCtx)
	}()

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	tenantRepo := postgres.NewTenantRepository(db)

	tokenManager := token.NewJWT(token.Config{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		PendingTTL: cfg.JWT.PendingTTL,
	})
	hasher := password.New(cfg.Password.Cost)
	totpEngine := totp.New(totp.Config{
		Issuer:           cfg.TOTP.Issuer,
		Digits:           cfg.TOTP.Digits,
		Period:           cfg.TOTP.Period,
		Skew:             cfg.TOTP.Skew,
		BackupCodeCount:  cfg.TOTP.BackupCodeCount,
		BackupCodeLength: cfg.TOTP.BackupCodeLength,
	})

	tokenService := service.NewTokenService(tokenManager, refreshTokenRepo, userRepo, cfg.JWT.RefreshTTL, logger)
	twoFactorService := service.NewTwoFactor(userRepo, tokenService, totpEngine, hasher, logger)
	authService := service.NewAuth(userRepo, hasher, tokenManager, tokenService, twoFactorService,
		cfg.Security.MaxLoginAttempts, cfg.Security.LockoutDuration, logger)

	errorMapper := response.NewErrorMapper(cfg.Development, logger)
	authHandler := handler.NewAuth(authService, tokenService, errorMapper, logger)
	twoFactorHandler := handler.NewTwoFactor(twoFactorService, errorMapper, logger)
	healthHandler := handler.NewHealth(db)

	authenticate := middleware.NewAuthenticate(tokenService, userRepo, tenantRepo, errorMapper, logger)
	logging := middleware.NewLogging(logger)
	rateLimit := middleware.NewRateLimit(cfg.RateLimit.LoginPerWindow, cfg.RateLimit.Window, cfg.RateLimit.Burst)

	r := router.New(authHandler, twoFactorHandler, healthHandler, authenticate, logging, rateLimit, errorMapper)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      otelhttp.NewHandler(r.Handler(), "warelock-auth"),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	var listener server.Listener = server.NewPlainListener()
	if cfg.HTTP.EnableHTTPS {
		listener = server.NewTLSListener(cfg.HTTP.CertFile, cfg.HTTP.KeyFile)
	}

	ln, err := listener.Listen(httpServer.Addr)
	if err != nil {
		logger.Fatal("failed to create listener", "error", err)
	}

	go func() {
		logger.Info("starting server", "address", httpServer.Addr, "https", cfg.HTTP.EnableHTTPS)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err)
	}

	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
