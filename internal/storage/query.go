package storage

import (
	"cmp"
	"slices"
	"strings"
)

// Sort orders accepted by Query.Sort.
const (
	SortFeatured  = "featured"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortNameAsc   = "name-asc"
	SortNameDesc  = "name-desc"
)

// Query narrows a List call.
type Query struct {
	// Filter keeps records whose field equals the value, compared in canonical
	// string form. Strings compare case-insensitively.
	Filter map[string]string
	// Limit keeps the first Limit records. 0 keeps all.
	Limit int
	// Sort is one of the Sort* constants or empty for file order.
	Sort string
}

// Validate checks the sort order and limit.
func (q *Query) Validate() error {
	switch q.Sort {
	case "", SortFeatured, SortPriceLow, SortPriceHigh, SortNameAsc, SortNameDesc:
	default:
		return Invalid("sort", "unknown sort order "+q.Sort)
	}
	if q.Limit < 0 {
		return Invalid("limit", "must be non-negative")
	}
	return nil
}

func (q *Query) apply(rows []Record) []Record {
	out := rows
	if len(q.Filter) != 0 {
		out = slices.DeleteFunc(slices.Clone(rows), func(r Record) bool { return !q.matches(r) })
	}
	if cmpFn := sortFunc(q.Sort); cmpFn != nil {
		out = slices.Clone(out)
		slices.SortStableFunc(out, cmpFn)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	if out == nil {
		out = []Record{}
	}
	return out
}

func (q *Query) matches(r Record) bool {
	for k, want := range q.Filter {
		v, ok := r[k]
		if !ok {
			return false
		}
		got := canonicalValue(v)
		if _, isString := v.(string); isString {
			if !strings.EqualFold(got, want) {
				return false
			}
		} else if got != canonicalValue(coerceFilter(want)) {
			return false
		}
	}
	return true
}

// coerceFilter turns a query string value into the type it most likely
// denotes so numbers and booleans compare canonically.
func coerceFilter(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if f, ok := Float(s); ok {
		return f
	}
	return s
}

func sortFunc(order string) func(a, b Record) int {
	price := func(r Record) float64 {
		f, _ := Float(r["price"])
		return f
	}
	name := func(r Record) string {
		return strings.ToLower(r.String("name"))
	}
	switch order {
	case SortFeatured:
		return func(a, b Record) int {
			fa, _ := Bool(a["featured"])
			fb, _ := Bool(b["featured"])
			switch {
			case fa == fb:
				return 0
			case fa:
				return -1
			default:
				return 1
			}
		}
	case SortPriceLow:
		return func(a, b Record) int { return cmp.Compare(price(a), price(b)) }
	case SortPriceHigh:
		return func(a, b Record) int { return cmp.Compare(price(b), price(a)) }
	case SortNameAsc:
		return func(a, b Record) int { return cmp.Compare(name(a), name(b)) }
	case SortNameDesc:
		return func(a, b Record) int { return cmp.Compare(name(b), name(a)) }
	}
	return nil
}
