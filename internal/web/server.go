// Package web serves the marketplace's HTML pages over echo.
package web

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"riceMarketplace/internal/account"
	"riceMarketplace/internal/auth"
	"riceMarketplace/internal/catalog"
)

// Options configures the HTTP surface.
type Options struct {
	StaticDir      string
	UploadDir      string
	MaxUploadBytes int64
	CookieSecure   bool
	// Logging enables per-request access logs.
	Logging bool
}

// Server holds the route handlers and their collaborators.
type Server struct {
	accounts *account.Service
	catalog  *catalog.Service
	sessions *auth.Sessions
	opts     Options
}

// New builds the echo instance with every route registered.
func New(accounts *account.Service, products *catalog.Service, sessions *auth.Sessions, opts Options) (*echo.Echo, error) {
	if accounts == nil || products == nil || sessions == nil {
		return nil, errors.New("web: accounts, catalog and sessions are required")
	}
	r, err := newRenderer()
	if err != nil {
		return nil, err
	}
	s := &Server{accounts: accounts, catalog: products, sessions: sessions, opts: opts}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = r
	e.HTTPErrorHandler = s.handleError

	e.Use(echoMiddleware.Recover())
	if opts.Logging {
		e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
			LogMethod:  true,
			LogURI:     true,
			LogStatus:  true,
			LogLatency: true,
			LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
				log.Printf("[web] %s %s %d %s", v.Method, v.URI, v.Status, v.Latency.Round(time.Microsecond))
				return nil
			},
		}))
	}
	if opts.MaxUploadBytes > 0 {
		e.Use(echoMiddleware.BodyLimit(fmt.Sprintf("%dB", opts.MaxUploadBytes)))
	}
	e.Use(s.loadSession)

	if opts.StaticDir != "" {
		e.Static("/static", opts.StaticDir)
	}
	if opts.UploadDir != "" {
		e.Static("/static/uploads", opts.UploadDir)
	}

	e.GET("/", s.index)
	e.Match([]string{http.MethodGet, http.MethodPost}, "/login", s.login)
	e.Match([]string{http.MethodGet, http.MethodPost}, "/register", s.register)
	e.Match([]string{http.MethodGet, http.MethodPost}, "/logout", s.logout)
	e.GET("/product/:id", s.productDetails)

	e.Match([]string{http.MethodGet, http.MethodPost}, "/sell_rice", s.sellRice, s.requireLogin)
	e.GET("/profile", s.profile, s.requireLogin)
	e.GET("/buy_now/:id", s.buyNow, s.requireLogin)
	return e, nil
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	if code >= http.StatusInternalServerError {
		log.Printf("[web] %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	p := &page{Title: http.StatusText(code), Data: errorData{Code: code, Text: http.StatusText(code)}}
	if rerr := c.Render(code, "error", p); rerr != nil {
		log.Printf("[web] render error page: %v", rerr)
		_ = c.String(code, http.StatusText(code))
	}
}

type errorData struct {
	Code int
	Text string
}
