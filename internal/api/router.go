package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/accounts-service/docs" // swagger spec registration
	"github.com/99minutos/accounts-service/internal/api/handler"
	"github.com/99minutos/accounts-service/internal/api/metrics"
	"github.com/99minutos/accounts-service/internal/api/middleware"
	"github.com/99minutos/accounts-service/internal/core/ports"
)

// RouterConfig carries everything the HTTP layer depends on.
type RouterConfig struct {
	Accounts  ports.AccountService
	Issuer    ports.TokenIssuer
	Readiness map[string]handler.Pinger
	Logger    zerolog.Logger

	// Registerer and Gatherer default to the global Prometheus registry. The
	// HTTP and account metrics are both registered on Registerer.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	EnableSwagger bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	if err := metrics.Register(cfg.Registerer); err != nil {
		cfg.Logger.Error().Err(err).Msg("failed to register account metrics")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(cfg.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "accounts",
		Registerer: cfg.Registerer,
	}))

	// --- Account routes ---
	accountHandler := handler.NewAccountHandler(cfg.Accounts)

	v1 := e.Group("/v1/accounts")
	v1.POST("/signup", accountHandler.Signup)
	v1.POST("/login", accountHandler.Login)

	authed := v1.Group("", middleware.Auth(cfg.Issuer))
	authed.GET("/me", accountHandler.Me)
	authed.GET("/:username", accountHandler.Get)

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)                        // liveness  – is the process alive?
	e.GET("/health/ready", handler.NewReadinessHandler(cfg.Readiness).Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: cfg.Gatherer}))
	if cfg.EnableSwagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	return e
}
