// Package catalog defines the storefront record kinds on top of the entity
// store: products, categories, orders and contacts.
//
// Each kind is one JSON collection file in the data directory. The required
// fields of a kind come from the `jsonschema:"required"` tags of its struct
// in schema.go; a normalizer per kind coerces form values and fills derived
// fields such as a category slug or an order total.
package catalog

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/maruel/storefront/internal/blob"
	"github.com/maruel/storefront/internal/jsonldb"
	"github.com/maruel/storefront/internal/storage"
)

// Collection names.
const (
	Products   = "products"
	Categories = "categories"
	Orders     = "orders"
	Contacts   = "contacts"
)

// Kind describes one record kind.
type Kind struct {
	// Name is the collection name, e.g. "products".
	Name string
	// Singular is used in response keys, e.g. "product".
	Singular string
	// Title is used in response messages, e.g. "Product".
	Title string
	// Created is the verb of the create message, e.g. "added".
	Created string
	// ImageField is the field holding a blob reference, if any.
	ImageField string
	// Updatable is false for kinds that are only created and deleted.
	Updatable bool

	schema    func() *jsonschema.Schema
	normalize storage.Normalizer
}

// Schema returns the JSON schema of the kind.
func (k *Kind) Schema() *jsonschema.Schema {
	return k.schema()
}

// Required returns the required field names.
func (k *Kind) Required() []string {
	return slices.Clone(k.schema().Required)
}

var kinds = []Kind{
	{Name: Products, Singular: "product", Title: "Product", Created: "added", ImageField: "image", Updatable: true, schema: jsonldb.Schema[Product], normalize: normalizeProduct},
	{Name: Categories, Singular: "category", Title: "Category", Created: "added", Updatable: true, schema: jsonldb.Schema[Category], normalize: normalizeCategory},
	{Name: Orders, Singular: "order", Title: "Order", Created: "created", Updatable: true, schema: jsonldb.Schema[Order], normalize: normalizeOrder},
	{Name: Contacts, Singular: "contact", Title: "Contact", Created: "submitted", schema: jsonldb.Schema[Contact]},
}

// Kinds returns all kinds.
func Kinds() []Kind {
	return slices.Clone(kinds)
}

// LookupKind returns the kind with the given collection name.
func LookupKind(name string) (Kind, bool) {
	i := slices.IndexFunc(kinds, func(k Kind) bool { return k.Name == name })
	if i < 0 {
		return Kind{}, false
	}
	return kinds[i], true
}

// Options configures Open.
type Options struct {
	// IDs maps a collection name to storage.IDPolicyInt or
	// storage.IDPolicyToken. Missing names use integer ids.
	IDs map[string]string
	// Blobs stores product images. Required.
	Blobs     blob.Store
	Observers []storage.Observer
	Now       func() time.Time

	// MaxUploadBytes limits seeded image files. Zero disables the limit.
	MaxUploadBytes int64
}

// Catalog holds the open collections.
type Catalog struct {
	dir       string
	cols      map[string]*storage.Collection
	maxUpload int64
}

// Open opens every collection in dataDir, creating missing files.
func Open(dataDir string, opts *Options) (*Catalog, error) {
	c := &Catalog{dir: dataDir, cols: make(map[string]*storage.Collection, len(kinds)), maxUpload: opts.MaxUploadBytes}
	for i := range kinds {
		k := &kinds[i]
		var ids storage.IDPolicy
		switch p := opts.IDs[k.Name]; p {
		case "", storage.IDPolicyInt:
		case storage.IDPolicyToken:
			ids = storage.TokenIDs{}
		default:
			return nil, fmt.Errorf("%s: unknown id policy %q", k.Name, p)
		}
		col, err := storage.Open(&storage.Options{
			Name:       k.Name,
			Path:       Path(dataDir, k.Name),
			Policy:     storage.Policy{Kind: k.Name, Required: k.Required()},
			IDs:        ids,
			ImageField: k.ImageField,
			Blobs:      opts.Blobs,
			Normalize:  k.normalize,
			Observers:  opts.Observers,
			Now:        opts.Now,
		})
		if err != nil {
			return nil, err
		}
		c.cols[k.Name] = col
	}
	return c, nil
}

// Path returns the collection file of a kind.
func Path(dataDir, name string) string {
	return filepath.Join(dataDir, name+".json")
}

// EnsureFiles creates an empty collection file for every kind that has none.
func EnsureFiles(dataDir string) error {
	for _, k := range kinds {
		if _, err := jsonldb.NewTable[storage.Record](Path(dataDir, k.Name)); err != nil {
			return fmt.Errorf("%s: %w", k.Name, err)
		}
	}
	return nil
}

// Dir returns the data directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// Collection returns the collection of a kind.
func (c *Catalog) Collection(name string) (*storage.Collection, bool) {
	col, ok := c.cols[name]
	return col, ok
}

// Collections returns all collections in kind order.
func (c *Catalog) Collections() []*storage.Collection {
	out := make([]*storage.Collection, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, c.cols[k.Name])
	}
	return out
}

// ImageSources returns the collections whose records reference blobs.
func (c *Catalog) ImageSources() []*storage.Collection {
	var out []*storage.Collection
	for _, k := range kinds {
		if k.ImageField != "" {
			out = append(out, c.cols[k.Name])
		}
	}
	return out
}

// Wait blocks until every pending blob cleanup finished.
func (c *Catalog) Wait() {
	for _, col := range c.cols {
		col.Wait()
	}
}
