package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aiopener/rac/internal/httpapi"
	"github.com/aiopener/rac/internal/mcpserver"
	"github.com/aiopener/rac/logging"
)

const shutdownTimeout = 30 * time.Second

func setupServeFlags() (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := addConfigFlag(fs)

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: rac serve [flags]\n\n")
		_, _ = fmt.Fprintf(output, "Start the HTTP API.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(output, "\nEnvironment:\n")
		_, _ = fmt.Fprintf(output, "  RAC_HOST, RAC_PORT, RAC_DATA_DIR, RAC_TENANTS_FILE, RAC_LOG_LEVEL,\n")
		_, _ = fmt.Fprintf(output, "  RAC_LOG_FORMAT, RAC_METRICS_ENABLED override the configuration file.\n")
	}
	return fs, configPath
}

func handleServe(args []string) error {
	fs, configPath := setupServeFlags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	a, err := newApp(*configPath, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Fail fast on an unreadable corpus instead of on the first request.
	idx, err := a.engine.Index(ctx)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", a.cfg.Data.Dir, err)
	}
	a.logger.Info().Str("dir", a.cfg.Data.Dir).Int("files", idx.Len()).Msg("corpus indexed")

	srv := &http.Server{
		Addr: a.cfg.Addr(),
		Handler: httpapi.NewRouter(httpapi.Deps{
			Engine:         a.engine,
			Logger:         a.logger,
			Metrics:        a.metrics,
			MetricsPath:    a.cfg.Metrics.Path,
			RequestTimeout: a.cfg.Server.WriteTimeout,
		}),
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", srv.Addr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.logger.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func setupMCPFlags() (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	configPath := addConfigFlag(fs)

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: rac mcp [flags]\n\n")
		_, _ = fmt.Fprintf(output, "Serve resolve_context, list_paths, get_raw_file and list_clients over stdio.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(output, "\nTool defaults come from RAC_MCP_FORMAT, RAC_MCP_INCLUDE_CLIENT,\n")
		_, _ = fmt.Fprintf(output, "RAC_MCP_LIST_LIMIT, RAC_MCP_MAX_LIMIT and RAC_MCP_TOOL_TIMEOUT.\n")
	}
	return fs, configPath
}

func handleMCP(args []string) error {
	fs, configPath := setupMCPFlags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	a, err := newApp(*configPath, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := mcpserver.New(a.engine,
		mcpserver.WithLogger(logging.NewZerologAdapter(a.logger)),
		mcpserver.WithName(a.cfg.MCP.Name),
	)
	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
