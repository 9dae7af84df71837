package main

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiopener/rac/config"
	"github.com/aiopener/rac/engine"
	"github.com/aiopener/rac/index"
	"github.com/aiopener/rac/internal/metrics"
	"github.com/aiopener/rac/logging"
	"github.com/aiopener/rac/tenant"
)

// app holds what every command needs.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	engine  *engine.Engine
	metrics *metrics.Collector
}

// addConfigFlag registers --config on fs.
func addConfigFlag(fs *flag.FlagSet) *string {
	return fs.String("config", "", "path to YAML configuration file (default: RAC_* environment and defaults)")
}

// newApp loads configuration and wires the engine. Logs go to logOut; stdout
// is left for command output and the MCP stdio transport.
func newApp(configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Logging, logOut)
	adapter := logging.NewZerologAdapter(logger)

	bindings := tenant.DefaultBindings()
	if cfg.Data.TenantsFile != "" {
		if bindings, err = tenant.LoadBindings(cfg.Data.TenantsFile); err != nil {
			return nil, err
		}
	}

	store := index.NewStore(cfg.Data.Dir,
		index.WithLogger(adapter),
		index.WithMaxFileSize(cfg.Data.MaxFileSize),
	)
	opts := []engine.Option{
		engine.WithLogger(adapter),
		engine.WithBindings(bindings),
		engine.WithMaxDepth(cfg.Resolver.MaxDepth),
	}

	a := &app{cfg: cfg, logger: logger}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
		opts = append(opts, engine.WithObserver(a.metrics))
	}
	a.engine = engine.New(store, opts...)
	return a, nil
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
