package service

import (
	"log/slog"

	"github.com/wkalt/treeviz/layout"
	"github.com/wkalt/treeviz/render"
)

// Option is a functional option for the viewer service.
type Option func(*Options)

// Options contains options for the viewer service.
type Options struct {
	Port           int
	BackendURL     string
	LogLevel       slog.Level
	Layout         layout.Config
	Palette        render.Palette
	FrameCacheSize int64
	AllowedOrigins []string
}

// WithPort sets the port to listen on.
func WithPort(port int) Option {
	return func(opts *Options) {
		opts.Port = port
	}
}

// WithBackendURL sets the base URL of the tree backend.
func WithBackendURL(url string) Option {
	return func(opts *Options) {
		opts.BackendURL = url
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level slog.Level) Option {
	return func(opts *Options) {
		opts.LogLevel = level
	}
}

// WithLayoutConfig sets the layout geometry.
func WithLayoutConfig(cfg layout.Config) Option {
	return func(opts *Options) {
		opts.Layout = cfg
	}
}

// WithPalette sets the frame colors.
func WithPalette(p render.Palette) Option {
	return func(opts *Options) {
		opts.Palette = p
	}
}

// WithFrameCacheSizeMegabytes sets the rendered frame cache size in megabytes.
func WithFrameCacheSizeMegabytes(size int64) Option {
	return func(opts *Options) {
		opts.FrameCacheSize = size * 1024 * 1024
	}
}

// WithAllowedOrigins sets the origins allowed to make cross-origin requests.
func WithAllowedOrigins(origins []string) Option {
	return func(opts *Options) {
		opts.AllowedOrigins = origins
	}
}
