package catalog

import (
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/maruel/storefront/internal/storage"
)

// Order statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

var statuses = []string{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

var whitespace = regexp.MustCompile(`\s+`)

// Slug lowercases name and replaces runs of whitespace with a dash.
func Slug(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(name), "-")
}

func normalizeProduct(r, prev storage.Record) error {
	if v, ok := r["price"]; ok && !blank(v) {
		f, ok := storage.Float(v)
		if !ok {
			return storage.Invalid("price", "must be a number")
		}
		if f < 0 {
			return storage.Invalid("price", "must not be negative")
		}
		r["price"] = f
	}
	if v := r["stock"]; blank(v) {
		r["stock"] = 0
	} else {
		n, ok := storage.Int(v)
		if !ok {
			return storage.Invalid("stock", "must be an integer")
		}
		if n < 0 {
			return storage.Invalid("stock", "must not be negative")
		}
		r["stock"] = n
	}
	if v := r["featured"]; blank(v) {
		r["featured"] = false
	} else {
		b, ok := storage.Bool(v)
		if !ok {
			return storage.Invalid("featured", "must be a boolean")
		}
		r["featured"] = b
	}
	for _, f := range []string{"category", "description"} {
		if r[f] == nil {
			r[f] = ""
		}
	}
	if v := r["image"]; blank(v) {
		// A blank string on update keeps the current image; null clears it.
		if _, ok := v.(string); ok && prev != nil {
			r["image"] = prev["image"]
		} else {
			r["image"] = nil
		}
	} else if _, ok := v.(string); !ok {
		return storage.Invalid("image", "must be a string")
	}
	return nil
}

func normalizeCategory(r, _ storage.Record) error {
	if name, ok := r["name"].(string); ok {
		r["slug"] = Slug(name)
	}
	if r["description"] == nil {
		r["description"] = ""
	}
	return nil
}

func normalizeOrder(r, _ storage.Record) error {
	if v, ok := r["items"]; ok && v != nil {
		items, ok := v.([]any)
		if !ok || len(items) == 0 {
			return storage.Invalid("items", "must be a non-empty array")
		}
		total := 0.0
		out := make([]any, len(items))
		for i, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				return storage.Invalid("items", "each item must be an object")
			}
			price, ok := storage.Float(m["price"])
			if !ok || price < 0 {
				return storage.Invalid("items", "item price must be a non-negative number")
			}
			qty, ok := storage.Int(m["quantity"])
			if !ok || qty < 1 {
				return storage.Invalid("items", "item quantity must be a positive integer")
			}
			item := storage.Record(m).Clone()
			item["price"] = price
			item["quantity"] = qty
			out[i] = map[string]any(item)
			total += price * float64(qty)
		}
		r["items"] = out
		r["total"] = math.Round(total*100) / 100
	}
	switch s := r["status"].(type) {
	case nil:
		r["status"] = StatusPending
	case string:
		if strings.TrimSpace(s) == "" {
			r["status"] = StatusPending
		} else if !slices.Contains(statuses, s) {
			return storage.Invalid("status", "must be one of "+strings.Join(statuses, ", "))
		}
	default:
		return storage.Invalid("status", "must be a string")
	}
	return nil
}

func blank(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}
