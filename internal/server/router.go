// Package server implements the HTTP server and routing logic.
package server

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/maruel/storefront/internal/catalog"
	"github.com/maruel/storefront/internal/server/dto"
	"github.com/maruel/storefront/internal/server/handlers"
	"github.com/maruel/storefront/internal/server/ratelimit"
)

// Options configures the non API routes.
type Options struct {
	// UploadsDir is served at /uploads/. Empty disables the route.
	UploadsDir string
	// StaticDir holds the single page application served at /. Empty
	// disables it.
	StaticDir string
}

// access describes which record routes are public for a kind. Everything
// else requires an administrator token.
type access struct {
	publicRead   bool
	publicCreate bool
}

var kindAccess = map[string]access{
	catalog.Products:   {publicRead: true},
	catalog.Categories: {publicRead: true},
	catalog.Orders:     {publicCreate: true},
	catalog.Contacts:   {publicCreate: true},
}

// NewRouter creates and configures the HTTP router.
// Serves API endpoints at /api/*, uploaded images at /uploads/ and the
// frontend at /.
func NewRouter(svc *handlers.Services, cfg *handlers.Config, limiters *ratelimit.Config, opts *Options) http.Handler {
	mux := &http.ServeMux{}

	hh := handlers.NewHealthHandler(cfg.Version)
	mux.Handle("GET /api/health", Wrap(hh.Health, cfg, limiters))

	ah := handlers.NewAuthHandler(cfg)
	mux.Handle("POST /api/auth/login", Wrap(ah.Login, cfg, limiters))

	var sh handlers.SchemaHandler
	mux.Handle("GET /api/schema/{kind}", Wrap(sh.Get, cfg, limiters))

	for _, k := range catalog.Kinds() {
		col, ok := svc.Catalog.Collection(k.Name)
		if !ok {
			continue
		}
		acc := kindAccess[k.Name]
		rh := handlers.NewRecordHandler(k, col, cfg)
		base := "/api/" + k.Name
		if acc.publicRead {
			mux.Handle("GET "+base, Wrap(rh.List, cfg, limiters))
			mux.Handle("GET "+base+"/{id}", Wrap(rh.Get, cfg, limiters))
		} else {
			mux.Handle("GET "+base, WrapAdmin(rh.List, cfg, limiters))
			mux.Handle("GET "+base+"/{id}", WrapAdmin(rh.Get, cfg, limiters))
		}
		if acc.publicCreate {
			mux.Handle("POST "+base, WrapRaw(rh.Create, cfg, limiters))
		} else {
			mux.Handle("POST "+base, WrapAdminRaw(rh.Create, cfg, limiters))
		}
		if k.Updatable {
			mux.Handle("PUT "+base+"/{id}", WrapAdminRaw(rh.Update, cfg, limiters))
		}
		mux.Handle("DELETE "+base+"/{id}", WrapAdmin(rh.Delete, cfg, limiters))
	}

	adm := handlers.NewAdminHandler(svc)
	mux.Handle("POST /api/admin/sweep", WrapAdmin(adm.Sweep, cfg, limiters))
	mux.Handle("GET /api/admin/stats", WrapAdmin(adm.Stats, cfg, limiters))
	mux.Handle("GET /api/admin/history/{kind}", WrapAdmin(adm.History, cfg, limiters))

	// Unknown API routes must not fall through to the SPA.
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, dto.NotFound("Route "+r.Method+" "+r.URL.Path))
	})

	if opts != nil && opts.UploadsDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", fileServer(os.DirFS(opts.UploadsDir))))
	}
	if opts != nil && opts.StaticDir != "" {
		mux.Handle("/", NewSPAHandler(os.DirFS(opts.StaticDir)))
	} else {
		mux.Handle("/", http.NotFoundHandler())
	}
	return mux
}

// fileServer serves files from fsys without directory listings or dot files.
func fileServer(fsys fs.FS) http.Handler {
	fsrv := http.FileServerFS(fsys)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if p == "" || strings.HasSuffix(p, "/") || strings.HasPrefix(p, ".") || strings.Contains(p, "/.") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		fsrv.ServeHTTP(w, r)
	})
}

// SPAHandler serves a single-page application with fallback to index.html.
type SPAHandler struct {
	fs fs.FS
}

// NewSPAHandler creates a handler for the frontend rooted at fsys.
func NewSPAHandler(fsys fs.FS) *SPAHandler {
	return &SPAHandler{fs: fsys}
}

// ServeHTTP implements http.Handler for SPA routing.
func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name != "" {
		if st, err := fs.Stat(h.fs, name); err == nil && !st.IsDir() {
			if containsDot(r.URL.Path) {
				w.Header().Set("Cache-Control", "public, max-age=3600")
			}
			http.ServeFileFS(w, r, h.fs, name)
			return
		}
	}
	// File not found, fall back to index.html for SPA routing.
	index, err := fs.ReadFile(h.fs, "index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = w.Write(index)
}

// containsDot checks if the last path element has a file extension.
func containsDot(p string) bool {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return false
		}
		if p[i] == '.' {
			return true
		}
	}
	return false
}
