package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/KaramelBytes/tablescope/internal/logging"
	"github.com/KaramelBytes/tablescope/internal/pipeline"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options configures the HTTP surface.
type Options struct {
	// MaxUploadMB caps the request body size.
	MaxUploadMB int
}

// Server is the upload page and JSON API in front of a pipeline.
type Server struct {
	echo *echo.Echo
	h    *Handler
}

type templateRenderer struct {
	templates *template.Template
}

func (r *templateRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// New builds the echo instance with middleware and routes registered.
func New(p *pipeline.Pipeline, opt Options, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	templates, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger = logger
	e.Renderer = &templateRenderer{templates: templates}
	e.HTTPErrorHandler = jsonErrorHandler(e)

	maxMB := opt.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 200
	}
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Infof("%s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", maxMB)))

	h := NewHandler(p, int64(maxMB)<<20, logger)
	h.RegisterRoutes(e)
	return &Server{echo: e, h: h}, nil
}

// Handler exposes the server as an http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return s.echo.Shutdown(ctx) }

// jsonErrorHandler answers API routes with {"error": message}; page routes
// fall back to echo's default handling.
func jsonErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprint(he.Message)
		}
		if strings.HasPrefix(c.Path(), "/api") {
			if werr := c.JSON(code, errorBody{Error: msg}); werr != nil {
				e.Logger.Error(werr)
			}
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}

type errorBody struct {
	Error string `json:"error"`
}
