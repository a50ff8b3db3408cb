// Package blogfront is the server-rendered web front of a remote blog
// service, built with Go, Echo, and templ. Visitors browse and search posts;
// signed-in users create, edit, and delete their own posts. All data lives
// behind the posts service; blogfront keeps only the browser session and, if
// enabled, a local stand-in dataset served while the service is unreachable.
package blogfront

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"

	"github.com/eringen/blogfront/gateway"
	"github.com/eringen/blogfront/metrics"
	"github.com/eringen/blogfront/store"
)

const (
	loginAttempts = 5
	loginWindow   = time.Minute
)

// App is the central blogfront application. It wires together the gateway,
// sessions, handlers, middleware, and views.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Metrics *metrics.Metrics
	Feed    *FeedCache

	api      gateway.API
	primary  gateway.API
	fallback *gateway.Fallback
	standIn  *store.Store
	redis    *goredis.Client
	limiter  *LoginLimiter
	clock    clockwork.Clock
	ready    bool
}

// New creates a blogfront App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	a := &App{
		Config: cfg,
		Echo:   e,
		clock:  clockwork.NewRealClock(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup connects the gateway, the optional stand-in dataset and session
// backend, then installs middleware and routes. Start calls it; tests call
// it directly and drive a.Echo as an http.Handler.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("blogfront: %w", err)
	}

	a.Metrics = metrics.New()

	if a.primary == nil {
		a.primary = gateway.New(a.Config.APIBaseURL,
			gateway.WithTimeout(a.Config.RequestTimeout),
			gateway.WithObserver(a.Metrics.ObserveGateway),
		)
	}
	a.api = a.primary

	if a.Config.FallbackEnabled {
		st, err := store.Open(a.Config.FallbackDatabasePath)
		if err != nil {
			return fmt.Errorf("blogfront: init stand-in dataset: %w", err)
		}
		a.standIn = st
		// Nobody signs in against the stand-in dataset, so its demo account
		// gets a hash no password matches.
		if err := st.Seed(context.Background(), "!"); err != nil {
			return fmt.Errorf("blogfront: seed stand-in dataset: %w", err)
		}
		a.fallback = gateway.NewFallback(a.primary, st, gateway.FallbackSettings{
			OnStateChange: a.Metrics.BreakerChanged,
		})
		a.api = a.fallback
	}

	if a.Config.SessionBackend == SessionBackendRedis {
		opt, err := goredis.ParseURL(a.Config.RedisURL)
		if err != nil {
			return fmt.Errorf("blogfront: parse redis url: %w", err)
		}
		a.redis = goredis.NewClient(opt)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("blogfront: connect redis: %w", err)
		}
	}

	a.Feed = NewFeedCache(a.api, a.Config.FeedCacheTTL, a.clock)
	a.limiter = NewLoginLimiter(loginAttempts, loginWindow, a.clock)

	a.setupMiddleware()
	a.setupRoutes()
	a.ready = true
	return nil
}

// Start sets the app up and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	slog.Info("blogfront listening", "addr", a.Config.Addr, "api", a.Config.APIBaseURL,
		"fallback", a.Config.FallbackEnabled, "sessions", a.Config.SessionBackend)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	assets, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.StaticFS("/public", assets)

	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: a.Metrics.Registry,
	}))
	e.GET("/healthz", a.handleHealth)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/post/:id", a.handlePost)

	e.GET("/login", a.handleLoginForm)
	e.POST("/login", a.handleLogin)
	e.GET("/register", a.handleRegisterForm)
	e.POST("/register", a.handleRegister)
	e.POST("/logout", a.handleLogout)

	e.GET("/create", a.handleCreateForm)
	e.POST("/create", a.handleCreate)
	e.GET("/edit/:id", a.handleEditForm)
	e.POST("/edit/:id", a.handleEdit)
	e.GET("/post/:id/delete", a.handleDeleteConfirm)
	e.POST("/post/:id/delete", a.handleDelete)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	var errList []error
	if a.standIn != nil {
		errList = append(errList, a.standIn.Close())
	}
	if a.redis != nil {
		errList = append(errList, a.redis.Close())
	}
	return errors.Join(errList...)
}
