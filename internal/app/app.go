package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/rtclobby/internal/config"
	"github.com/vovakirdan/rtclobby/internal/core"
	"github.com/vovakirdan/rtclobby/internal/metrics"
	transporthttp "github.com/vovakirdan/rtclobby/internal/transport/http"
)

const indexFile = "index.html"

// ErrIndexMissing is returned when the static directory has no index page.
var ErrIndexMissing = errors.New("index page not found")

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
// It fails before anything is started if the static index page is missing.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := CheckStatic(cfg.StaticPath); err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	hub := core.NewHub(core.HubConfig{
		MaxClients: cfg.MaxClients,
		Observer:   observer(m),
	}, logger)
	server := transporthttp.NewServer(hub, cfg, m, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		log:             logger,
	}, nil
}

// observer avoids handing the hub a typed nil.
func observer(m *metrics.Metrics) core.Observer {
	if m == nil {
		return nil
	}
	return m
}

// CheckStatic verifies that dir contains the index page.
func CheckStatic(dir string) error {
	index := filepath.Join(dir, indexFile)
	info, err := os.Stat(index)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrIndexMissing, index)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrIndexMissing, index)
	}
	return nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	a.log.Info().Str("bind", a.server.Addr).Msg("started http server")

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}
