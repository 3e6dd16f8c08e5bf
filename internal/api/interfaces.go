// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/brickify/web/internal/models"
	"github.com/labstack/echo/v4"
)

// PageHandler renders the read-only pages
type PageHandler interface {
	HandleHome(c echo.Context) error
	HandleAnalyzePage(c echo.Context) error
	HandleLoginPage(c echo.Context) error
	HandleRegisterPage(c echo.Context) error
}

// AnalyzeHandler submits images through the session's upload gate
type AnalyzeHandler interface {
	HandleAnalyzeForm(c echo.Context) error
	HandleAnalyzeAPI(c echo.Context) error
	HandleUploadState(c echo.Context) error
}

// AuthHandler handles sign-in, sign-up and sign-out
type AuthHandler interface {
	HandleLogin(c echo.Context) error
	HandleRegister(c echo.Context) error
	HandleLogout(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// Backend is the remote service the pages talk to.
// *backend.Client implements it.
type Backend interface {
	Analyze(ctx context.Context, token string, file models.SelectedFile) (models.AnalysisResult, error)
	Login(ctx context.Context, creds models.Credentials) (string, error)
	Register(ctx context.Context, reg models.Registration) (*models.Account, error)
	Health(ctx context.Context) error
}
