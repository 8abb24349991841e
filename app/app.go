package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/panjf2000/gnet/v2"
	"github.com/rs/zerolog"

	"github.com/oneopane/libxev-http/config"
	"github.com/oneopane/libxev-http/core"
	"github.com/oneopane/libxev-http/core/middleware"
	"github.com/oneopane/libxev-http/core/router"
)

// App binds a Config, Router and middleware Pipeline into a runnable
// gnet-driven server.
type App struct {
	cfg      *config.Config
	router   *router.Router
	pipeline *middleware.Pipeline
	logger   zerolog.Logger
	engine   *core.Engine
}

// New creates an application instance with an empty router and an
// empty middleware pipeline. Register routes via Router() before Run.
func New(cfg *config.Config) *App {
	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	name := cfg.LogLevel
	switch name {
	case "warning":
		name = "warn"
	case "critical":
		name = "fatal"
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return &App{
		cfg:      cfg,
		router:   router.New(),
		pipeline: middleware.NewPipeline(),
		logger:   logger,
	}
}

// Router returns the underlying router for route registration.
func (a *App) Router() *router.Router {
	return a.router
}

// Use appends a middleware step to the pipeline run before every route
// handler.
func (a *App) Use(handler middleware.HandlerFunc) *App {
	a.pipeline.Use(handler)
	return a
}

// GET registers a GET route.
func (a *App) GET(pattern string, handler router.HandlerFunc) *App {
	a.router.Handle("GET", pattern, handler)
	return a
}

// POST registers a POST route.
func (a *App) POST(pattern string, handler router.HandlerFunc) *App {
	a.router.Handle("POST", pattern, handler)
	return a
}

// PUT registers a PUT route.
func (a *App) PUT(pattern string, handler router.HandlerFunc) *App {
	a.router.Handle("PUT", pattern, handler)
	return a
}

// DELETE registers a DELETE route.
func (a *App) DELETE(pattern string, handler router.HandlerFunc) *App {
	a.router.Handle("DELETE", pattern, handler)
	return a
}

// Run starts the gnet event loop and blocks until a termination signal
// arrives, then drains via the gnet engine's own Stop.
func (a *App) Run() error {
	a.pipeline.Compile()
	a.engine = core.NewEngine(a.cfg, a.router, a.pipeline, a.logger)

	addr := fmt.Sprintf("tcp://%s:%d", a.cfg.Address, a.cfg.Port)

	go a.awaitSignal()

	a.logger.Info().Str("addr", addr).Msg("starting server")
	return gnet.Run(a.engine, addr,
		gnet.WithMulticore(true),
		gnet.WithTCPNoDelay(gnet.TCPNoDelay),
		gnet.WithReadBufferCap(a.cfg.BufferSize),
	)
}

func (a *App) awaitSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	a.logger.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.engine != nil {
		if err := gnet.Stop(ctx, fmt.Sprintf("tcp://%s:%d", a.cfg.Address, a.cfg.Port)); err != nil {
			a.logger.Warn().Err(err).Msg("error stopping engine")
		}
	}
}
