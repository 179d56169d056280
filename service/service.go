package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/wkalt/treeviz/client"
	"github.com/wkalt/treeviz/controller"
	"github.com/wkalt/treeviz/layout"
	"github.com/wkalt/treeviz/render"
	"github.com/wkalt/treeviz/routes"
	"github.com/wkalt/treeviz/util"
	"github.com/wkalt/treeviz/util/log"
)

/*
This file is the main entrypoint for viewer server startup.
*/

////////////////////////////////////////////////////////////////////////////////

const (
	shutdownGracePeriod = 10 * time.Second
)

// Viewer is the interactive viewer service.
type Viewer struct {
	ready chan string
}

// NewViewerService creates a new viewer service.
func NewViewerService() *Viewer {
	return &Viewer{ready: make(chan string, 1)}
}

// Ready receives the listening address once the server is accepting
// connections.
func (v *Viewer) Ready() <-chan string {
	return v.ready
}

// Start runs the viewer until SIGINT or SIGTERM is received, or ctx is
// canceled.
func (v *Viewer) Start(ctx context.Context, options ...Option) error {
	opts, err := readOpts(options...)
	if err != nil {
		return fmt.Errorf("failed to read options: %w", err)
	}
	log.Init(os.Stderr, opts.LogLevel)
	log.Debugf(ctx, "Debug logging enabled")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := routes.NewHub()
	go hub.Run(ctx)
	viewer, err := routes.NewViewer(hub, opts.Palette, opts.FrameCacheSize)
	if err != nil {
		return err
	}
	defer viewer.Close()

	backend := client.New(opts.BackendURL)
	ctrl := controller.New(backend, viewer, opts.Layout)
	if err := ctrl.Refresh(ctx); err != nil {
		// not fatal; the page's refresh button retries.
		log.Warnw(ctx, "Initial refresh failed", "backend", opts.BackendURL, "error", err)
	}

	log.Infof(ctx, "Building routes with allowed origins %+v", opts.AllowedOrigins)
	r := routes.MakeRoutes(ctrl, viewer, hub, opts.AllowedOrigins)
	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(opts.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	sigint := make(chan os.Signal, 1)
	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT)
	signal.Notify(sigterm, syscall.SIGTERM)
	defer signal.Stop(sigint)
	defer signal.Stop(sigterm)

	startErr := make(chan error, 1)
	go func() {
		log.Infow(ctx, "Starting server",
			"addr", listener.Addr().String(),
			"backend", opts.BackendURL,
			"cache", util.HumanBytes(uint64(opts.FrameCacheSize)),
		)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			startErr <- err
		}
	}()
	v.ready <- listener.Addr().String()

	select {
	case <-sigint:
		log.Infof(ctx, "Received SIGINT")
	case <-sigterm:
		log.Infof(ctx, "Received SIGTERM")
	case <-ctx.Done():
		log.Infof(ctx, "Context canceled")
	case err := <-startErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Infof(ctx, "Allowing %s for existing connections to close", shutdownGracePeriod)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.WithoutCancel(ctx), shutdownGracePeriod)
	defer cancelShutdown()

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Shutdown(shutdownCtx)
	}()

	select {
	case <-sigint:
		return errors.New("forceful shutdown on second interrupt")
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		log.Infof(ctx, "Server stopped")
		return nil
	}
}

func readOpts(opts ...Option) (*Options, error) {
	options := Options{
		Port:           8080,
		BackendURL:     "http://localhost:5000",
		LogLevel:       slog.LevelInfo,
		Layout:         layout.DefaultConfig(),
		Palette:        render.DefaultPalette(),
		FrameCacheSize: 64 * 1024 * 1024,
		AllowedOrigins: []string{
			"http://localhost:5000",
			"http://localhost:8080",
		},
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.BackendURL == "" {
		return nil, errors.New("backend URL is required")
	}
	if options.FrameCacheSize <= 0 {
		return nil, errors.New("frame cache size must be positive")
	}
	if options.Layout.CellWidth <= 0 || options.Layout.CellHeight <= 0 {
		return nil, errors.New("cell dimensions must be positive")
	}
	return &options, nil
}
