package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/nidus/nidus/internal/config"
	"github.com/nidus/nidus/internal/domain/agenda"
	"github.com/nidus/nidus/internal/domain/careevent"
	"github.com/nidus/nidus/internal/domain/dailylog"
	"github.com/nidus/nidus/internal/domain/identity"
	"github.com/nidus/nidus/internal/platform/apperr"
	"github.com/nidus/nidus/internal/platform/db"
	"github.com/nidus/nidus/internal/platform/middleware"
)

// newEcho builds the server with global middleware and the liveness route.
func newEcho(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	var hsts time.Duration
	if !cfg.IsDev() {
		hsts = 365 * 24 * time.Hour
	}
	e.Use(middleware.SecurityHeaders(hsts))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}

	e.GET("/health", db.LivenessHandler())
	return e
}

// registerAPI wires every domain package onto /api.
func registerAPI(e *echo.Echo, cfg *config.Config, logger zerolog.Logger, conn db.Conn) error {
	api := e.Group("/api")
	loc := cfg.Location()

	// Care events
	careevent.NewHandler(careevent.NewService(careevent.NewStorePG(conn), loc)).RegisterRoutes(api)

	// Aggregated patient views
	agenda.NewHandler(agenda.NewService(agenda.NewRowSourcePG(conn))).RegisterRoutes(api)

	// Daily log
	policy, err := dailylog.ParseActivitiesPolicy(cfg.ActivitiesPolicy)
	if err != nil {
		return fmt.Errorf("daily log: %w", err)
	}
	dailylog.NewHandler(dailylog.NewService(dailylog.NewStorePG(conn), loc, policy)).RegisterRoutes(api)

	// Accounts
	verifier, err := identity.NewVerifier(cfg.CredentialScheme)
	if err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	if cfg.CredentialScheme == config.CredentialPlaintext {
		logger.Warn().Msg("passwords are stored and compared as plaintext")
	}
	identitySvc := identity.NewService(identity.NewStorePG(conn), verifier, cfg.DeleteConfirmation)
	identity.NewHandler(identitySvc).
		WithGuard(middleware.Throttle(middleware.ThrottleConfig{
			PerMinute: cfg.LoginPerMinute,
			Burst:     cfg.LoginBurst,
			IdleAfter: middleware.DefaultThrottleConfig().IdleAfter,
		})).
		RegisterRoutes(api)

	return nil
}
