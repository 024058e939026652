package webserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lachlan2k/rta-portal/internal/apiclient"
	"github.com/lachlan2k/rta-portal/internal/auth"
	"github.com/lachlan2k/rta-portal/internal/config"
	"github.com/lachlan2k/rta-portal/internal/metrics"
	"github.com/lachlan2k/rta-portal/internal/session"
	"github.com/lachlan2k/rta-portal/internal/utils"
	"github.com/lachlan2k/rta-portal/internal/views"
)

type Webserver struct {
	echo *echo.Echo
	conf *config.Config

	store   session.Store
	client  *apiclient.Client
	auth    *auth.Service
	views   *views.Service
	metrics *metrics.Metrics
	logger  *slog.Logger

	now func() time.Time
}

// Deps are what Setup wires in. Everything but Store is optional.
type Deps struct {
	Store    session.Store
	Registry *prometheus.Registry
	Logger   *slog.Logger
	// Transport for backend calls, http.DefaultTransport when nil
	Transport http.RoundTripper
}

func New() *Webserver {
	e := echo.New()
	e.HideBanner = true

	return &Webserver{
		echo: e,
		now:  time.Now,
	}
}

func (w *Webserver) Logger() echo.Logger {
	return w.echo.Logger
}

// Handler is the fully routed server, for tests and embedding
func (w *Webserver) Handler() http.Handler {
	return w.echo
}

// Setup builds the backend client and auth flows, and registers every route
func (w *Webserver) Setup(conf *config.Config, deps Deps) error {
	if deps.Store == nil {
		return fmt.Errorf("a session store is required")
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	w.conf = conf
	w.store = deps.Store
	w.logger = deps.Logger
	w.metrics = metrics.NewMetrics(deps.Registry)

	client, err := apiclient.New(apiclient.Options{
		BaseURL:   conf.APIBaseURL,
		Store:     deps.Store,
		Timeout:   conf.Timeout(),
		Observer:  w.metrics,
		Logger:    deps.Logger,
		Transport: deps.Transport,
	})
	if err != nil {
		return err
	}
	w.client = client
	w.auth = auth.NewService(client, conf, deps.Logger)
	w.views = views.NewService(client, conf.Audit.Path)

	w.registerMiddleware()
	w.registerRoutes()
	return nil
}

func (w *Webserver) registerMiddleware() {
	e := w.echo

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Logger())

	if len(w.conf.AllowedOrigins) > 0 {
		allowed := utils.OriginAllowlist(w.conf.AllowedOrigins)
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOriginFunc: func(origin string) (bool, error) {
				return allowed.Allows(origin), nil
			},
			AllowCredentials: true,
		}))
	}

	e.Use(w.metricsMiddleware)
}

func (w *Webserver) metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			// Let echo write the response now so the status we record is the real one
			c.Error(err)
		}

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		w.metrics.ObserveRequest(route, c.Request().Method, c.Response().Status, time.Since(start))
		return nil
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully. With a file
// backed session it also follows changes made by other processes.
func (w *Webserver) Run(ctx context.Context) error {
	if fs, ok := w.store.(*session.FileStore); ok && w.conf.Session.Watch {
		go func() {
			if err := session.Watch(ctx, fs, w.logger); err != nil {
				w.logger.Error("session watcher stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.echo.Shutdown(shutdownCtx); err != nil {
			w.echo.Logger.Errorf("Graceful shutdown failed: %v", err)
		}
	}()

	err := w.echo.Start(w.conf.ListenAddr())
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
