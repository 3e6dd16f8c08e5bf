// routes.go - Route registration helpers
// This file provides a clean way to register all page and API routes
package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/brickify/web/internal/session"
	"github.com/brickify/web/internal/uploadgate"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Backend  Backend
	Sessions *session.Manager
	Policy   uploadgate.Policy
	Cookie   CookieOptions
	Log      logrus.FieldLogger
	Version  string

	// LoginRate limits sign-in and sign-up posts per client, in requests
	// per second. Zero disables the limiter.
	LoginRate  float64
	LoginBurst int
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Pages   PageHandler
	Analyze AnalyzeHandler
	Auth    AuthHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.Backend),
		Pages:   NewPageHandler(deps.Policy),
		Analyze: NewAnalyzeHandler(deps.Policy, deps.Log),
		Auth:    NewAuthHandler(deps.Backend, deps.Sessions, deps.Cookie, deps.Log),
	}
}

// RegisterRoutes registers all routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers, deps *Dependencies) {
	// Health check stays outside the session so health checks don't mint cookies
	e.GET("/api/health", handlers.Health.HandleHealth)

	withSession := SessionMiddleware(deps.Sessions, deps.Cookie)
	limited := append([]echo.MiddlewareFunc{withSession}, loginLimiter(deps.LoginRate, deps.LoginBurst)...)

	// Pages
	e.GET("/", handlers.Pages.HandleHome, withSession)
	e.GET("/analyze", handlers.Pages.HandleAnalyzePage, withSession)
	e.POST("/analyze", handlers.Analyze.HandleAnalyzeForm, withSession)
	e.GET("/login", handlers.Pages.HandleLoginPage, withSession)
	e.POST("/login", handlers.Auth.HandleLogin, limited...)
	e.GET("/register", handlers.Pages.HandleRegisterPage, withSession)
	e.POST("/register", handlers.Auth.HandleRegister, limited...)
	e.POST("/logout", handlers.Auth.HandleLogout, withSession)

	// Script-facing routes
	apiGroup := e.Group("/api")
	apiGroup.POST("/analyze", handlers.Analyze.HandleAnalyzeAPI, withSession)
	apiGroup.GET("/upload/state", handlers.Analyze.HandleUploadState, withSession)
}

// SetupMiddleware installs the error handler
func SetupMiddleware(e *echo.Echo, log logrus.FieldLogger, showDetails bool) {
	e.HTTPErrorHandler = NewErrorHandler(log, showDetails)
}

func loginLimiter(perSecond float64, burst int) []echo.MiddlewareFunc {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: 10 * time.Minute,
	})
	return []echo.MiddlewareFunc{middleware.RateLimiter(store)}
}
