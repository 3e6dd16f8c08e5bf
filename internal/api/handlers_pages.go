// handlers_pages.go - Page rendering handlers
package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brickify/web/internal/session"
	"github.com/brickify/web/internal/uploadgate"
	"github.com/brickify/web/internal/web"
)

// PageHandlerImpl implements the PageHandler interface
type PageHandlerImpl struct {
	policy uploadgate.Policy
}

// NewPageHandler creates a new page handler
func NewPageHandler(policy uploadgate.Policy) PageHandler {
	return &PageHandlerImpl{policy: policy}
}

// HandleHome renders the landing page
func (h *PageHandlerImpl) HandleHome(c echo.Context) error {
	return c.Render(http.StatusOK, web.PageHome, basePage(c, "Home", "/"))
}

// HandleAnalyzePage renders the upload form with the session's last outcome
func (h *PageHandlerImpl) HandleAnalyzePage(c echo.Context) error {
	return c.Render(http.StatusOK, web.PageAnalyze, analyzePage(c, h.policy))
}

// HandleLoginPage renders the sign-in form
func (h *PageHandlerImpl) HandleLoginPage(c echo.Context) error {
	page := basePage(c, "Sign in", "/login")
	if c.QueryParam("registered") != "" {
		page.Notice = "account created, please sign in"
	}
	return c.Render(http.StatusOK, web.PageLogin, page)
}

// HandleRegisterPage renders the sign-up form
func (h *PageHandlerImpl) HandleRegisterPage(c echo.Context) error {
	return c.Render(http.StatusOK, web.PageRegister, basePage(c, "Sign up", "/login"))
}

func analyzePage(c echo.Context, policy uploadgate.Policy) web.Page {
	page := basePage(c, "Analyze", "/analyze")
	page.Accept = policy.AcceptPrefix
	page.MaxBytes = policy.MaxBytes
	page.MaxLabel = sizeLabel(policy.MaxBytes)

	if sess := SessionFrom(c); sess != nil {
		fillOutcome(&page, sess)
	}
	return page
}

func fillOutcome(page *web.Page, sess *session.Session) {
	result, errMsg := sess.Outcome()
	if len(result) > 0 {
		page.Result = result.Pretty()
	}
	page.Error = errMsg
	if g := sess.Gate(); g != nil {
		page.Busy = g.State() == uploadgate.StateBusy
	}
}

func sizeLabel(n int64) string {
	const mib = 1024 * 1024
	if n >= mib && n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
