package storage

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

func names(rows []Record) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.String("name"))
	}
	return out
}

func TestQuery(t *testing.T) {
	rows := []Record{
		{"id": json.Number("1"), "name": "Ring", "price": json.Number("25"), "category": "Rings", "featured": true},
		{"id": json.Number("2"), "name": "anklet", "price": json.Number("9.5"), "category": "anklets", "featured": false},
		{"id": json.Number("3"), "name": "Bracelet", "price": json.Number("40"), "category": "rings"},
		{"id": json.Number("4"), "name": "chain", "price": json.Number("9.5"), "category": "Chains", "featured": true},
	}
	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"all", Query{}, []string{"Ring", "anklet", "Bracelet", "chain"}},
		{"featured", Query{Filter: map[string]string{"featured": "true"}}, []string{"Ring", "chain"}},
		{"not featured skips missing field", Query{Filter: map[string]string{"featured": "false"}}, []string{"anklet"}},
		{"category case insensitive", Query{Filter: map[string]string{"category": "RINGS"}}, []string{"Ring", "Bracelet"}},
		{"numeric filter", Query{Filter: map[string]string{"price": "9.50"}}, []string{"anklet", "chain"}},
		{"id filter", Query{Filter: map[string]string{"id": "3"}}, []string{"Bracelet"}},
		{"limit", Query{Limit: 2}, []string{"Ring", "anklet"}},
		{"limit larger than rows", Query{Limit: 10}, []string{"Ring", "anklet", "Bracelet", "chain"}},
		{"no match", Query{Filter: map[string]string{"category": "none"}}, []string{}},
		{"price low stable", Query{Sort: SortPriceLow}, []string{"anklet", "chain", "Ring", "Bracelet"}},
		{"price high", Query{Sort: SortPriceHigh}, []string{"Bracelet", "Ring", "anklet", "chain"}},
		{"name asc", Query{Sort: SortNameAsc}, []string{"anklet", "Bracelet", "chain", "Ring"}},
		{"name desc", Query{Sort: SortNameDesc}, []string{"Ring", "chain", "Bracelet", "anklet"}},
		{"featured first", Query{Sort: SortFeatured}, []string{"Ring", "chain", "anklet", "Bracelet"}},
		{"filter sort limit", Query{Filter: map[string]string{"featured": "true"}, Sort: SortNameAsc, Limit: 1}, []string{"chain"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.q.Validate(); err != nil {
				t.Fatal(err)
			}
			got := tt.q.apply(rows)
			if got == nil {
				t.Fatal("apply() = nil")
			}
			if n := names(got); !slices.Equal(n, tt.want) {
				t.Errorf("apply() = %v, want %v", n, tt.want)
			}
		})
	}
	if rows[0].String("name") != "Ring" || rows[3].String("name") != "chain" {
		t.Error("apply() reordered its input")
	}
}

func TestQueryValidate(t *testing.T) {
	for _, q := range []Query{{Sort: "random"}, {Limit: -1}} {
		var ve *ValidationError
		if err := q.Validate(); !errors.As(err, &ve) {
			t.Errorf("Validate(%+v) = %v", q, err)
		}
	}
}
