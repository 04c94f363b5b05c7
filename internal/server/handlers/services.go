// Defines shared service dependencies for handlers.

package handlers

import (
	"github.com/maruel/storefront/internal/catalog"
	"github.com/maruel/storefront/internal/history"
	"github.com/maruel/storefront/internal/storage"
)

// Services holds all service dependencies for handlers.
type Services struct {
	Catalog *catalog.Catalog
	Sweeper *storage.Sweeper // may be nil
	History *history.Repo    // may be nil
}

// Config holds configuration values needed by handlers.
type Config struct {
	storage.ServerConfig
	Version string
}
