package web

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"riceMarketplace/models"
)

const (
	sessionCookie = "session"
	accountKey    = "account"
)

// loadSession restores the account behind the session cookie, if any.
// Invalid, expired or orphaned sessions are cleared and the request continues anonymously.
func (s *Server) loadSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ck, err := c.Cookie(sessionCookie)
		if err != nil || ck.Value == "" {
			return next(c)
		}
		p, err := s.sessions.Parse(ck.Value)
		if err != nil {
			s.clearSession(c)
			return next(c)
		}
		f, err := s.accounts.Restore(c.Request().Context(), p.AccountID)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				log.Printf("[web] restore session %d: %v", p.AccountID, err)
			}
			s.clearSession(c)
			return next(c)
		}
		c.Set(accountKey, f)
		return next(c)
	}
}

// requireLogin sends anonymous requests to the login page, remembering where they were going.
func (s *Server) requireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if currentAccount(c) == nil {
			flashNext(c, flashInfo, "Please log in to access this page.")
			return c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request().URL.RequestURI()))
		}
		return next(c)
	}
}

func currentAccount(c echo.Context) *models.Farmer {
	f, _ := c.Get(accountKey).(*models.Farmer)
	return f
}

func (s *Server) startSession(c echo.Context, f *models.Farmer) error {
	tok, exp, err := s.sessions.Issue(f)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    tok,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(time.Until(exp).Seconds()),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(accountKey, f)
	return nil
}

func (s *Server) clearSession(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(accountKey, nil)
}

// safeNext accepts only local absolute paths as post-login targets. Browsers
// drop tabs and newlines from URLs, so any control byte rejects the target.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	if strings.IndexFunc(next, func(r rune) bool { return r < 0x20 || r == 0x7f }) >= 0 {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
