// Imports categories and products from a YAML manifest.

package catalog

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/maruel/storefront/internal/blob"
	"github.com/maruel/storefront/internal/storage"
	"gopkg.in/yaml.v3"
)

// Manifest is a seed file.
type Manifest struct {
	Categories []SeedCategory `yaml:"categories"`
	Products   []SeedProduct  `yaml:"products"`
}

// SeedCategory is a category to create.
type SeedCategory struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// SeedProduct is a product to create.
type SeedProduct struct {
	Name        string  `yaml:"name"`
	Category    string  `yaml:"category,omitempty"`
	Price       float64 `yaml:"price"`
	Description string  `yaml:"description,omitempty"`
	Stock       int64   `yaml:"stock,omitempty"`
	Featured    bool    `yaml:"featured,omitempty"`
	// Image is an external URL stored as is.
	Image string `yaml:"image,omitempty"`
	// ImageFile is a local file uploaded through the blob store. Relative
	// paths are resolved against the manifest directory.
	ImageFile string `yaml:"image_file,omitempty"`
}

// LoadManifest reads and validates a seed manifest.
// The path is provided by the CLI user, so file inclusion is expected.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path) //nolint:gosec // User-specified manifest path
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	defer func() { _ = f.Close() }()
	d := yaml.NewDecoder(f)
	d.KnownFields(true)
	var m Manifest
	if err := d.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// Validate checks that every entry has a name and at most one image source.
func (m *Manifest) Validate() error {
	for i := range m.Categories {
		if strings.TrimSpace(m.Categories[i].Name) == "" {
			return fmt.Errorf("category %d: name is required", i)
		}
	}
	for i := range m.Products {
		p := &m.Products[i]
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("product %d: name is required", i)
		}
		if p.Price < 0 {
			return fmt.Errorf("product %q: price must not be negative", p.Name)
		}
		if p.Image != "" && p.ImageFile != "" {
			return fmt.Errorf("product %q: image and image_file are exclusive", p.Name)
		}
	}
	return nil
}

// SeedResult counts what Seed did.
type SeedResult struct {
	CategoriesAdded   int
	CategoriesSkipped int
	ProductsAdded     int
	ProductsSkipped   int
}

// Seed adds the manifest entries that do not exist yet. Categories are
// matched by slug and products by case-insensitive name, so running it twice
// is harmless. baseDir resolves relative image files.
func (c *Catalog) Seed(ctx context.Context, m *Manifest, baseDir string) (*SeedResult, error) {
	res := &SeedResult{}
	cats := c.cols[Categories]
	existing, err := cats.List(ctx, storage.Query{})
	if err != nil {
		return res, err
	}
	slugs := map[string]bool{}
	for _, r := range existing {
		slugs[r.String("slug")] = true
	}
	for _, sc := range m.Categories {
		slug := Slug(sc.Name)
		if slugs[slug] {
			res.CategoriesSkipped++
			continue
		}
		if _, err := cats.Add(ctx, storage.Record{"name": sc.Name, "description": sc.Description}, nil); err != nil {
			return res, fmt.Errorf("category %q: %w", sc.Name, err)
		}
		slugs[slug] = true
		res.CategoriesAdded++
	}

	prods := c.cols[Products]
	existing, err = prods.List(ctx, storage.Query{})
	if err != nil {
		return res, err
	}
	names := map[string]bool{}
	for _, r := range existing {
		names[strings.ToLower(r.String("name"))] = true
	}
	for i := range m.Products {
		sp := &m.Products[i]
		key := strings.ToLower(sp.Name)
		if names[key] {
			res.ProductsSkipped++
			continue
		}
		if err := c.seedProduct(ctx, sp, baseDir); err != nil {
			return res, fmt.Errorf("product %q: %w", sp.Name, err)
		}
		names[key] = true
		res.ProductsAdded++
	}
	return res, nil
}

func (c *Catalog) seedProduct(ctx context.Context, sp *SeedProduct, baseDir string) error {
	fields := storage.Record{
		"name":        sp.Name,
		"category":    sp.Category,
		"price":       sp.Price,
		"description": sp.Description,
		"stock":       sp.Stock,
		"featured":    sp.Featured,
	}
	if sp.Image != "" {
		fields["image"] = sp.Image
	}
	if sp.ImageFile == "" {
		_, err := c.cols[Products].Add(ctx, fields, nil)
		return err
	}
	p := sp.ImageFile
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	f, err := os.Open(p) //nolint:gosec // Path comes from the operator's manifest
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return errors.New("image_file is not a regular file")
	}
	up := &blob.Upload{
		Data:        f,
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(p))),
		Filename:    filepath.Base(p),
	}
	if err := blob.CheckImage(up.Filename, up.ContentType, up.Size, c.maxUpload); err != nil {
		return err
	}
	_, err = c.cols[Products].Add(ctx, fields, up)
	return err
}
