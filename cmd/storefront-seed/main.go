// Command storefront-seed creates the empty collection files and imports
// categories and products from a YAML manifest.
//
// Usage:
//
//	storefront-seed [-data-dir ./data] [manifest.yaml]
//
// Without a manifest only the collection files are created. Entries that
// already exist are skipped so the command can be run repeatedly.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/maruel/storefront/internal/catalog"
	"github.com/maruel/storefront/internal/cli"
	"github.com/maruel/storefront/internal/storage"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "storefront-seed: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	dataDir := flag.String("data-dir", "./data", "Data directory")
	uploadsDir := flag.String("uploads-dir", "./public/uploads", "Directory for uploaded images")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()
	if len(flag.Args()) > 1 {
		return fmt.Errorf("unknown arguments: %v", flag.Args()[1:])
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := cli.InitLogger()
	if err := cli.SetLevel(ll, *logLevel); err != nil {
		return err
	}

	if err := catalog.EnsureFiles(*dataDir); err != nil {
		return fmt.Errorf("failed to create collection files: %w", err)
	}
	if flag.NArg() == 0 {
		fmt.Printf("Collection files ready in %s\n", *dataDir)
		return nil
	}

	path := flag.Arg(0)
	m, err := catalog.LoadManifest(path)
	if err != nil {
		return err
	}
	env, err := cli.LoadDotEnv(*dataDir)
	if err != nil {
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
	cat, err := catalog.Open(*dataDir, &catalog.Options{IDs: serverCfg.IDs, Blobs: blobs.Store, MaxUploadBytes: serverCfg.Quotas.MaxUploadBytes})
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer cat.Wait()
	res, err := cat.Seed(ctx, m, filepath.Dir(path))
	if err != nil {
		return err
	}
	fmt.Printf("categories: %d added, %d skipped\n", res.CategoriesAdded, res.CategoriesSkipped)
	fmt.Printf("products: %d added, %d skipped\n", res.ProductsAdded, res.ProductsSkipped)
	return nil
}
