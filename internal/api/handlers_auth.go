// handlers_auth.go - Sign-in, sign-up and sign-out handlers
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/brickify/web/internal/backend"
	"github.com/brickify/web/internal/models"
	"github.com/brickify/web/internal/session"
	"github.com/brickify/web/internal/web"
)

// User-facing auth messages.
const (
	MsgInvalidCredentials = "invalid credentials"
	MsgMissingCredentials = "email and password are required"
	MsgRegisterFailed     = "could not create the account"
	MsgSignInUnavailable  = "sign-in is unavailable, please try again later"
)

// AuthHandlerImpl implements the AuthHandler interface
type AuthHandlerImpl struct {
	backend  Backend
	sessions *session.Manager
	cookie   CookieOptions
	log      logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(b Backend, sessions *session.Manager, cookie CookieOptions, log logrus.FieldLogger) AuthHandler {
	return &AuthHandlerImpl{
		backend:  b,
		sessions: sessions,
		cookie:   cookie,
		log:      log.WithField("component", "auth"),
	}
}

// HandleLogin exchanges credentials for a token, stores it on the session
// and sends the browser home.
func (h *AuthHandlerImpl) HandleLogin(c echo.Context) error {
	var creds models.Credentials
	if err := c.Bind(&creds); err != nil {
		return NewBadRequestError("invalid form", err)
	}
	creds.Email = strings.TrimSpace(creds.Email)

	page := basePage(c, "Sign in", "/login")
	page.FormEmail = creds.Email

	if creds.Email == "" || creds.Password == "" {
		page.Error = MsgMissingCredentials
		return c.Render(http.StatusUnprocessableEntity, web.PageLogin, page)
	}

	token, err := h.backend.Login(c.Request().Context(), creds)
	if err != nil {
		h.log.WithError(err).WithField("email", creds.Email).Info("login rejected")
		status := loginFailureStatus(err)
		page.Error = MsgInvalidCredentials
		if status != http.StatusUnauthorized {
			page.Error = MsgSignInUnavailable
		}
		return c.Render(status, web.PageLogin, page)
	}

	sess := SessionFrom(c)
	if sess == nil {
		return NewInternalError("no session", nil)
	}
	sess.SignIn(creds.Email, token)
	return c.Redirect(http.StatusSeeOther, "/")
}

// HandleRegister creates an account on the backend, then sends the browser
// to the sign-in page.
func (h *AuthHandlerImpl) HandleRegister(c echo.Context) error {
	var reg models.Registration
	if err := c.Bind(&reg); err != nil {
		return NewBadRequestError("invalid form", err)
	}
	reg.Email = strings.TrimSpace(reg.Email)
	reg.FullName = strings.TrimSpace(reg.FullName)

	page := basePage(c, "Sign up", "/login")
	page.FormEmail = reg.Email
	page.FormFullName = reg.FullName

	if reg.Email == "" || reg.Password == "" {
		page.Error = MsgMissingCredentials
		return c.Render(http.StatusUnprocessableEntity, web.PageRegister, page)
	}

	if _, err := h.backend.Register(c.Request().Context(), reg); err != nil {
		h.log.WithError(err).WithField("email", reg.Email).Info("registration rejected")
		page.Error = MsgRegisterFailed
		status := http.StatusBadGateway
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			page.Error = MsgRegisterFailed + ": " + apiErr.Message
			status = apiErr.Status
		}
		return c.Render(status, web.PageRegister, page)
	}

	return c.Redirect(http.StatusSeeOther, "/login?registered=1")
}

// HandleLogout drops the session and its cookie.
func (h *AuthHandlerImpl) HandleLogout(c echo.Context) error {
	if sess := SessionFrom(c); sess != nil {
		sess.SignOut()
		h.sessions.Delete(sess.ID)
	}
	clearSessionCookie(c, h.cookie)
	return c.Redirect(http.StatusSeeOther, "/")
}

// loginFailureStatus is 401 when the backend refused the credentials and
// 502 when it could not be reached or misbehaved.
func loginFailureStatus(err error) int {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		return http.StatusUnauthorized
	}
	return http.StatusBadGateway
}
