// Package main is the entry point for the storefront server.
//
// storefront serves a small shop: products, categories, orders and contact
// messages stored as JSON files, product images on the local disk or in S3,
// and an optional single page application. Configuration is read from CLI
// flags, a .env file and server_config.json in the data directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/maruel/storefront/internal/catalog"
	"github.com/maruel/storefront/internal/cli"
	"github.com/maruel/storefront/internal/history"
	"github.com/maruel/storefront/internal/server"
	"github.com/maruel/storefront/internal/server/handlers"
	"github.com/maruel/storefront/internal/server/ratelimit"
	"github.com/maruel/storefront/internal/storage"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	httpAddr := flag.String("http", "localhost:8080", "Address to listen on (e.g., localhost:8080, :8080, 0.0.0.0:8080)")
	dataDir := flag.String("data-dir", "./data", "Data directory")
	uploadsDir := flag.String("uploads-dir", "./public/uploads", "Directory for uploaded images, served at /uploads/")
	staticDir := flag.String("static-dir", "", "Frontend directory served at / (optional)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	withHistory := flag.Bool("history", false, "Record every change in a git repository in the data directory")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}
	if *version {
		fmt.Printf("storefront %s\n", cli.Version())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := cli.InitLogger()

	if err := os.MkdirAll(*dataDir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	env, err := cli.LoadDotEnv(*dataDir)
	if err != nil {
		return err
	}

	// Override with .env file values if not explicitly set via flags.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	for name, p := range map[string]*string{
		"http":        httpAddr,
		"log-level":   logLevel,
		"uploads-dir": uploadsDir,
		"static-dir":  staticDir,
	} {
		if set[name] {
			continue
		}
		if v := env[strings.ToUpper(strings.ReplaceAll(name, "-", "_"))]; v != "" {
			*p = v
		}
	}
	if err := cli.SetLevel(ll, *logLevel); err != nil {
		return err
	}
	if err := cli.ExportAWS(env); err != nil {
		return err
	}

	serverCfg, err := storage.LoadServerConfig(*dataDir)
	if err != nil {
		return fmt.Errorf("failed to load server_config.json: %w", err)
	}
	if pw := env["ADMIN_PASSWORD"]; pw != "" && !serverCfg.CheckAdminPassword(pw) {
		if err := serverCfg.SetAdminPassword(pw); err != nil {
			return err
		}
		if err := serverCfg.Save(*dataDir); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Admin password updated from .env")
	}
	if serverCfg.AdminPasswordHash == "" {
		slog.WarnContext(ctx, "No admin password configured; set ADMIN_PASSWORD in .env to enable admin routes")
	}

	blobs, err := cli.OpenBlobs(&serverCfg.Blob, *uploadsDir, env)
	if err != nil {
		return err
	}

	opts := &catalog.Options{IDs: serverCfg.IDs, Blobs: blobs.Store}
	svc := &handlers.Services{}
	if *withHistory {
		repo, err := history.Open(*dataDir)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		opts.Observers = append(opts.Observers, repo)
		svc.History = repo
	}
	cat, err := catalog.Open(*dataDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer cat.Wait()
	svc.Catalog = cat
	svc.Sweeper = &storage.Sweeper{
		Sources:  cat.ImageSources(),
		Backends: blobs.Backends(),
		MinAge:   time.Duration(serverCfg.Sweep.MinAgeMinutes) * time.Minute,
	}
	if serverCfg.Sweep.Enabled {
		sched, err := serverCfg.Sweep.Schedule()
		if err != nil {
			return err
		}
		go func() {
			if err := storage.RunWeekly(ctx, svc.Sweeper, sched); err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "Sweep scheduler stopped", "err", err)
			}
		}()
	}

	limiters := ratelimit.NewConfig(serverCfg.RateLimits.AuthRatePerMin, serverCfg.RateLimits.PublicWriteRatePerMin, serverCfg.RateLimits.WriteRatePerMin)
	defer limiters.Close()

	// Watch own executable for modifications (for development restarts).
	if err := watchExecutable(ctx, stop); err != nil {
		return fmt.Errorf("failed to watch executable: %w", err)
	}

	addr := *httpAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	cfg := &handlers.Config{ServerConfig: *serverCfg, Version: cli.Version()}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(svc, cfg, limiters, &server.Options{UploadsDir: blobs.Local.Dir(), StaticDir: *staticDir}),
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "Starting server", "addr", addr, "blob", blobs.Store.Name(), "version", cfg.Version)
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.InfoContext(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		slog.InfoContext(ctx, "Server stopped")
	}
	return nil
}

// watchExecutable watches the current executable for modifications and calls
// stop to trigger graceful shutdown when detected.
func watchExecutable(ctx context.Context, stop context.CancelFunc) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(exe); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) {
					slog.InfoContext(ctx, "Executable modified, initiating shutdown")
					stop()
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching executable", "err", err)
			}
		}
	}()
	return nil
}
