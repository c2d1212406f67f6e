// Package app wires the service together: configuration, logging, the
// in-memory graph store, the dependency editor, the roll-forward
// instantiator, and the HTTP handler.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/closegraph/internal/audit"
	"github.com/vk/closegraph/internal/config"
	"github.com/vk/closegraph/internal/ctxlog"
	"github.com/vk/closegraph/internal/depedit"
	"github.com/vk/closegraph/internal/httpapi"
	"github.com/vk/closegraph/internal/memgraph"
	"github.com/vk/closegraph/internal/notify"
	"github.com/vk/closegraph/internal/rollforward"
)

// Config holds the command-line inputs for an App instance. Empty override
// fields defer to the config file, which in turn defers to defaults.
type Config struct {
	ConfigPath string
	ListenAddr string
	LogLevel   string
	LogFormat  string
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	cfg     *config.Config
	store   *memgraph.Store
	sink    *audit.MemorySink
	handler *httpapi.Handler
}

// New is the constructor for the main application. It loads configuration,
// builds an isolated logger, wires every component, and seeds the template
// pool declared in the config file.
func New(outW io.Writer, appConfig *Config) (*App, error) {
	cfg := config.Default()
	if appConfig.ConfigPath != "" {
		loaded, err := config.Load(appConfig.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	// Command-line overrides win over the file.
	if appConfig.ListenAddr != "" {
		cfg.Server.ListenAddr = appConfig.ListenAddr
	}
	if appConfig.LogLevel != "" {
		cfg.Server.LogLevel = appConfig.LogLevel
	}
	if appConfig.LogFormat != "" {
		cfg.Server.LogFormat = appConfig.LogFormat
	}

	logger := newLogger(cfg.Server.LogLevel, cfg.Server.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	store := memgraph.New()
	sink := audit.NewMemorySink()
	notifier := notify.NewLogNotifier()
	editor := depedit.New(store, sink, notifier)
	instantiator := rollforward.New(store, sink, notifier)

	if err := seedTemplates(ctx, store, editor, cfg.Templates); err != nil {
		return nil, fmt.Errorf("failed to seed template pool: %w", err)
	}
	if len(cfg.Templates) > 0 {
		logger.Info("Template pool seeded from config.", "count", len(cfg.Templates))
	}

	handler := httpapi.New(store, editor, instantiator, notifier, sink, logger)

	return &App{
		outW:    outW,
		logger:  logger,
		cfg:     cfg,
		store:   store,
		sink:    sink,
		handler: handler,
	}, nil
}

// Handler returns the application's HTTP handler. This is primarily for testing.
func (a *App) Handler() *httpapi.Handler {
	return a.handler
}
