// Command storefront-sweep deletes the uploaded images that no product
// references anymore, once, then exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maruel/storefront/internal/catalog"
	"github.com/maruel/storefront/internal/cli"
	"github.com/maruel/storefront/internal/storage"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "storefront-sweep: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	dataDir := flag.String("data-dir", "./data", "Data directory")
	uploadsDir := flag.String("uploads-dir", "./public/uploads", "Directory for uploaded images")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	dryRun := flag.Bool("dry-run", false, "List the orphans without deleting them")
	minAge := flag.Duration("min-age", -1, "Spare blobs younger than this; negative uses server_config.json")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := cli.InitLogger()

	env, err := cli.LoadDotEnv(*dataDir)
	if err != nil {
		return err
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	if v := env["UPLOADS_DIR"]; v != "" && !set["uploads-dir"] {
		*uploadsDir = v
	}
	if v := env["LOG_LEVEL"]; v != "" && !set["log-level"] {
		*logLevel = v
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
	blobs, err := cli.OpenBlobs(&serverCfg.Blob, *uploadsDir, env)
	if err != nil {
		return err
	}
	cat, err := catalog.Open(*dataDir, &catalog.Options{IDs: serverCfg.IDs, Blobs: blobs.Store})
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	age := *minAge
	if age < 0 {
		age = time.Duration(serverCfg.Sweep.MinAgeMinutes) * time.Minute
	}
	sw := &storage.Sweeper{Sources: cat.ImageSources(), Backends: blobs.Backends(), MinAge: age, DryRun: *dryRun}
	rep, err := sw.Sweep(ctx)
	if err != nil {
		return err
	}
	verb := "deleted"
	if *dryRun {
		verb = "would delete"
	}
	fmt.Printf("%d live references\n", rep.Live)
	for _, b := range rep.Backends {
		n := b.Deleted
		if *dryRun {
			n = len(b.Orphans)
		}
		fmt.Printf("%s: scanned %d, %s %d, skipped %d\n", b.Name, b.Scanned, verb, n, b.Skipped)
		for _, o := range b.Orphans {
			fmt.Printf("  %s\n", o)
		}
	}
	return rep.Err()
}
