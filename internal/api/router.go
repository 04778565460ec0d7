package api

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/prospermbuma/acquisitions/internal/api/docs"
	"github.com/prospermbuma/acquisitions/internal/api/handler"
	"github.com/prospermbuma/acquisitions/internal/api/middleware"
	"github.com/prospermbuma/acquisitions/internal/api/session"
	"github.com/prospermbuma/acquisitions/internal/core/domain"
	"github.com/prospermbuma/acquisitions/internal/core/ports"
	"github.com/prospermbuma/acquisitions/internal/core/service"
	"github.com/prospermbuma/acquisitions/internal/pkg/config"
	"github.com/prospermbuma/acquisitions/internal/security"
)

// Deps collects everything the HTTP layer needs from the process.
type Deps struct {
	Config *config.Config
	Log    zerolog.Logger
	Users  ports.UserRepository
	Hasher ports.PasswordHasher
	// Audit may be nil, in which case events are discarded.
	Audit ports.AuditRecorder
	// Limiter throttles sign-in per client IP. Nil disables throttling.
	Limiter middleware.Limiter
	// Checks are pinged by the readiness probe, keyed by dependency name.
	Checks map[string]handler.Checker
	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Started    time.Time
}

type discardAudit struct{}

func (discardAudit) Record(domain.AuthEvent) {}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	if d.Hasher == nil {
		d.Hasher = security.NewBcryptHasher(security.DefaultCost)
	}
	if d.Audit == nil {
		d.Audit = discardAudit{}
	}
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.Started.IsZero() {
		d.Started = time.Now()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "acquisitions",
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/swagger")
		},
	}))

	// --- Dependencies ---
	tokens := security.NewTokenIssuer(d.Config.Auth.JWTSecret, d.Config.Auth.JWTExpiresIn, d.Log)
	cookies := session.NewManager(d.Config.IsProduction(), d.Config.Auth.CookieMaxAge)
	authService := service.NewAuthService(d.Users, d.Hasher, d.Log)
	authHandler := handler.NewAuthHandler(authService, tokens, cookies, d.Audit, d.Log, d.Config.AdminSignUpAllowed())
	userHandler := handler.NewUserHandler(authService)
	requireAuth := middleware.Auth(tokens, session.CookieName)

	// --- Informational ---
	e.GET("/", handler.Root)
	e.GET("/api", handler.APIRoot)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler(d.Started, d.Checks, d.Log)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- Auth routes ---
	v1 := e.Group("/api/v1")
	auth := v1.Group("/auth")
	auth.POST("/sign-up", authHandler.SignUp)
	auth.POST("/sign-in", authHandler.SignIn, middleware.RateLimit(d.Limiter, d.Log))
	auth.POST("/sign-out", authHandler.SignOut)
	auth.GET("/me", authHandler.Me, requireAuth)

	// --- Admin ---
	v1.GET("/users", userHandler.List, requireAuth, middleware.RBAC(domain.RoleAdmin))

	return e
}
