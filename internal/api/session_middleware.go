package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brickify/web/internal/session"
	"github.com/brickify/web/internal/web"
)

const sessionContextKey = "session"

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

// SessionMiddleware attaches the browser's session to the request context,
// creating one (and setting the cookie) when the browser has none.
func SessionMiddleware(mgr *session.Manager, opts CookieOptions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var id string
			if cookie, err := c.Cookie(opts.Name); err == nil {
				id = cookie.Value
			}

			sess, created := mgr.GetOrCreate(id)
			if created {
				c.SetCookie(sessionCookie(opts, sess.ID, 0))
			}
			c.Set(sessionContextKey, sess)
			return next(c)
		}
	}
}

// SessionFrom returns the session attached by SessionMiddleware, or nil.
func SessionFrom(c echo.Context) *session.Session {
	sess, _ := c.Get(sessionContextKey).(*session.Session)
	return sess
}

func clearSessionCookie(c echo.Context, opts CookieOptions) {
	c.SetCookie(sessionCookie(opts, "", -1))
}

func sessionCookie(opts CookieOptions, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     opts.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// basePage fills the fields every page shares.
func basePage(c echo.Context, title, active string) web.Page {
	page := web.Page{Title: title, Active: active}
	if sess := SessionFrom(c); sess != nil {
		page.Authenticated = sess.Authenticated()
		page.Email = sess.Email()
	}
	return page
}
