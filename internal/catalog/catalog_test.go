package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/maruel/storefront/internal/blob"
	"github.com/maruel/storefront/internal/storage"
)

func newTestCatalog(t *testing.T, ids map[string]string) (*Catalog, *blob.LocalStore) {
	t.Helper()
	dir := t.TempDir()
	local, err := blob.NewLocalStore(filepath.Join(dir, "uploads"), "/uploads/")
	if err != nil {
		t.Fatal(err)
	}
	c, err := Open(filepath.Join(dir, "data"), &Options{IDs: ids, Blobs: local})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Wait)
	return c, local
}

func TestKinds(t *testing.T) {
	want := map[string][]string{
		Products:   {"name", "price"},
		Categories: {"name"},
		Orders:     {"customerName", "customerEmail", "items"},
		Contacts:   {"name", "email", "message"},
	}
	for _, k := range Kinds() {
		t.Run(k.Name, func(t *testing.T) {
			if got := k.Required(); !slices.Equal(got, want[k.Name]) {
				t.Errorf("Required() = %v, want %v", got, want[k.Name])
			}
			if k.Schema().Properties.Len() == 0 {
				t.Error("empty schema")
			}
		})
	}
	if _, ok := LookupKind("users"); ok {
		t.Error("LookupKind(users) succeeded")
	}
	if k, ok := LookupKind(Contacts); !ok || k.Updatable {
		t.Errorf("LookupKind(contacts) = %+v, %t", k, ok)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Rings", "rings"},
		{"Gold  Rings\tSet", "gold-rings-set"},
		{"Ear Cuffs", "ear-cuffs"},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeProduct(t *testing.T) {
	t.Run("coerces form values", func(t *testing.T) {
		r := storage.Record{"name": "Ring", "price": "19.99", "stock": "3", "featured": "on", "image": ""}
		if err := normalizeProduct(r, nil); err != nil {
			t.Fatal(err)
		}
		if r["price"] != 19.99 || r["stock"] != int64(3) || r["featured"] != true || r["image"] != nil {
			t.Errorf("record = %v", r)
		}
		if r["category"] != "" || r["description"] != "" {
			t.Errorf("defaults = %v", r)
		}
	})
	t.Run("defaults", func(t *testing.T) {
		r := storage.Record{"name": "Ring", "price": 5}
		if err := normalizeProduct(r, nil); err != nil {
			t.Fatal(err)
		}
		if r["stock"] != 0 || r["featured"] != false {
			t.Errorf("record = %v", r)
		}
	})
	t.Run("blank image on update keeps the current one", func(t *testing.T) {
		prev := storage.Record{"name": "Ring", "price": 5.0, "image": "/uploads/ring.png"}
		r := storage.Record{"name": "Ring", "price": 30.0, "image": " "}
		if err := normalizeProduct(r, prev); err != nil {
			t.Fatal(err)
		}
		if r["image"] != "/uploads/ring.png" {
			t.Errorf("image = %v", r["image"])
		}
		r = storage.Record{"name": "Ring", "price": 30.0, "image": nil}
		if err := normalizeProduct(r, prev); err != nil {
			t.Fatal(err)
		}
		if r["image"] != nil {
			t.Errorf("image = %v, want cleared", r["image"])
		}
	})
	t.Run("missing price is left to the policy", func(t *testing.T) {
		r := storage.Record{"name": "Ring"}
		if err := normalizeProduct(r, nil); err != nil {
			t.Fatal(err)
		}
		if _, ok := r["price"]; ok {
			t.Errorf("price = %v", r["price"])
		}
	})
	tests := []struct {
		name  string
		r     storage.Record
		field string
	}{
		{"bad price", storage.Record{"price": "abc"}, "price"},
		{"negative price", storage.Record{"price": -1}, "price"},
		{"bad stock", storage.Record{"stock": "many"}, "stock"},
		{"negative stock", storage.Record{"stock": "-2"}, "stock"},
		{"bad featured", storage.Record{"featured": "maybe"}, "featured"},
		{"bad image", storage.Record{"image": 3}, "image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ve *storage.ValidationError
			if err := normalizeProduct(tt.r, nil); !errors.As(err, &ve) || ve.Fields[0] != tt.field {
				t.Errorf("normalizeProduct() = %v, want error on %s", err, tt.field)
			}
		})
	}
}

func TestNormalizeOrder(t *testing.T) {
	t.Run("total and status", func(t *testing.T) {
		r := storage.Record{"items": []any{
			map[string]any{"id": 1, "price": "10", "quantity": 2},
			map[string]any{"id": 2, "price": 5.5, "quantity": "1"},
			map[string]any{"price": 0.1, "quantity": 3},
		}}
		if err := normalizeOrder(r, nil); err != nil {
			t.Fatal(err)
		}
		if r["total"] != 25.8 {
			t.Errorf("total = %v", r["total"])
		}
		if r["status"] != StatusPending {
			t.Errorf("status = %v", r["status"])
		}
		item := r["items"].([]any)[0].(map[string]any)
		if item["price"] != 10.0 || item["quantity"] != int64(2) || item["id"] != 1 {
			t.Errorf("item = %v", item)
		}
	})
	t.Run("keeps valid status", func(t *testing.T) {
		r := storage.Record{"status": StatusShipped}
		if err := normalizeOrder(r, nil); err != nil {
			t.Fatal(err)
		}
		if r["status"] != StatusShipped {
			t.Errorf("status = %v", r["status"])
		}
	})
	tests := []struct {
		name  string
		r     storage.Record
		field string
	}{
		{"empty items", storage.Record{"items": []any{}}, "items"},
		{"items not array", storage.Record{"items": "ring"}, "items"},
		{"item not object", storage.Record{"items": []any{"ring"}}, "items"},
		{"item bad quantity", storage.Record{"items": []any{map[string]any{"price": 1, "quantity": 0}}}, "items"},
		{"item missing price", storage.Record{"items": []any{map[string]any{"quantity": 1}}}, "items"},
		{"unknown status", storage.Record{"status": "lost"}, "status"},
		{"status not string", storage.Record{"status": 3}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ve *storage.ValidationError
			if err := normalizeOrder(tt.r, nil); !errors.As(err, &ve) || ve.Fields[0] != tt.field {
				t.Errorf("normalizeOrder() = %v, want error on %s", err, tt.field)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	c, local := newTestCatalog(t, nil)
	for _, k := range Kinds() {
		if _, err := os.Stat(Path(c.Dir(), k.Name)); err != nil {
			t.Errorf("%s: %v", k.Name, err)
		}
	}
	if n := len(c.Collections()); n != 4 {
		t.Errorf("Collections() = %d", n)
	}
	src := c.ImageSources()
	if len(src) != 1 || src[0].Name() != Products {
		t.Errorf("ImageSources() = %v", src)
	}

	ctx := t.Context()
	products, _ := c.Collection(Products)
	p, err := products.Add(ctx, storage.Record{"name": "Ring", "price": "25"}, &blob.Upload{
		Data: strings.NewReader("gif"), ContentType: "image/gif", Filename: "ring.gif",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !local.Owns(p.String("image")) {
		t.Errorf("image = %v", p["image"])
	}

	cats, _ := c.Collection(Categories)
	cat, err := cats.Add(ctx, storage.Record{"name": "Ear Cuffs"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cat["slug"] != "ear-cuffs" || cat["description"] != "" {
		t.Errorf("category = %v", cat)
	}
	cat, err = cats.Update(ctx, cat.ID(), storage.Record{"name": "Cuffs"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cat["slug"] != "cuffs" {
		t.Errorf("slug = %v", cat["slug"])
	}

	orders, _ := c.Collection(Orders)
	_, err = orders.Add(ctx, storage.Record{"customerName": "Ann", "customerEmail": "ann@example.com"}, nil)
	var ve *storage.ValidationError
	if !errors.As(err, &ve) || !slices.Equal(ve.Fields, []string{"items"}) {
		t.Errorf("Add(order) = %v", err)
	}

	contacts, _ := c.Collection(Contacts)
	if _, err := contacts.Add(ctx, storage.Record{"name": "Ann", "email": "ann@example.com", "message": "hi"}, nil); err != nil {
		t.Error(err)
	}
}

func TestOpenTokenIDs(t *testing.T) {
	c, _ := newTestCatalog(t, map[string]string{Orders: storage.IDPolicyToken})
	orders, _ := c.Collection(Orders)
	o, err := orders.Add(t.Context(), storage.Record{
		"customerName": "Ann", "customerEmail": "ann@example.com",
		"items": []any{map[string]any{"price": 1, "quantity": 1}},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := o["id"].(string); !ok {
		t.Errorf("id = %#v", o["id"])
	}
	local, err := blob.NewLocalStore(t.TempDir(), "/uploads/")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Open(t.TempDir(), &Options{IDs: map[string]string{Orders: "uuid"}, Blobs: local}); err == nil {
		t.Error("unknown policy accepted")
	}
}

func TestEnsureFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	if err := EnsureFiles(dir); err != nil {
		t.Fatal(err)
	}
	for _, k := range Kinds() {
		data, err := os.ReadFile(Path(dir, k.Name))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "[]\n" {
			t.Errorf("%s = %q", k.Name, data)
		}
	}
}
