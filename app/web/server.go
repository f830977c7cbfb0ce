// Package web serves the dashboard of the most viewed Wikipedia articles
// as HTML pages and JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/Semior001/topviews/app/query"
	"github.com/Semior001/topviews/app/store"
	"github.com/Semior001/topviews/app/wikimedia"
	"github.com/Semior001/topviews/pkg/logx"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"
)

//go:embed templates/*.html
var templates embed.FS

var pageTmpl = template.Must(template.ParseFS(templates, "templates/index.html"))

// Server provides HTTP routes of the dashboard.
type Server struct {
	Logger    *slog.Logger
	Addr      string
	Version   string
	Source    Source
	Articles  *query.Client[wikimedia.ArticleList]
	Countries *query.Client[wikimedia.CountryList]
	Sessions  *Sessions
	// Store with persisted responses, optional.
	Store store.Interface
	// RenderWait is how long the page waits for the data before
	// rendering the loading state.
	RenderWait time.Duration
	// Now returns the current time, time.Now if nil.
	Now func() time.Time

	once sync.Once
	e    *echo.Echo
}

// Run starts the server and shuts it down when the context is done.
func (s *Server) Run(ctx context.Context) error {
	e := s.echo()

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("starting http server", slog.String("addr", s.Addr))
		errCh <- e.Start(s.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("start http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	s.Logger.Warn("http server stopped")
	return nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.echo() }

func (s *Server) echo() *echo.Echo {
	s.once.Do(func() {
		if s.Now == nil {
			s.Now = time.Now
		}
		s.e = s.routes()
	})
	return s.e
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			Generator:        uuid.NewString,
			RequestIDHandler: requestIDToContext,
		}),
		middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return path == "/health" || path == "/metrics"
			},
			LogMethod:     true,
			LogURI:        true,
			LogStatus:     true,
			LogLatency:    true,
			LogError:      true,
			LogValuesFunc: s.logRequest,
		}),
		middleware.Recover(),
	)

	e.GET("/", s.dashboard)
	e.GET("/api/top", s.apiTop)
	e.GET("/api/countries", s.apiCountries)
	e.GET("/health", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

func requestIDToContext(c echo.Context, id string) {
	req := c.Request()
	c.SetRequest(req.WithContext(logx.ContextWithRequestID(req.Context(), id)))
}

func (s *Server) logRequest(c echo.Context, v middleware.RequestLoggerValues) error {
	level := slog.LevelInfo
	attrs := []slog.Attr{
		slog.String("method", v.Method),
		slog.String("uri", v.URI),
		slog.Int("status", v.Status),
		slog.Duration("latency", v.Latency),
	}

	if v.Error != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.Any("err", v.Error))
	}

	s.Logger.LogAttrs(c.Request().Context(), level, "request handled", attrs...)
	return nil
}
