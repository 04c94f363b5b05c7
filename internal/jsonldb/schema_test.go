package jsonldb

import (
	"slices"
	"testing"
)

type schemaRow struct {
	ID    string  `json:"id"`
	Name  string  `json:"name" jsonschema:"required,description=Display name"`
	Price float64 `json:"price" jsonschema:"required"`
	Notes string  `json:"notes,omitempty"`
}

func TestRequiredFields(t *testing.T) {
	got := RequiredFields[schemaRow]()
	want := []string{"name", "price"}
	if !slices.Equal(got, want) {
		t.Errorf("RequiredFields() = %v, want %v", got, want)
	}
	// Pointer types resolve to the element.
	if got := RequiredFields[*schemaRow](); !slices.Equal(got, want) {
		t.Errorf("RequiredFields[*T]() = %v, want %v", got, want)
	}
}

func TestFieldNames(t *testing.T) {
	got := FieldNames[schemaRow]()
	want := []string{"id", "name", "price", "notes"}
	if !slices.Equal(got, want) {
		t.Errorf("FieldNames() = %v, want %v", got, want)
	}
}

func TestSchemaDescription(t *testing.T) {
	s := Schema[schemaRow]()
	prop, ok := s.Properties.Get("name")
	if !ok {
		t.Fatal("missing name property")
	}
	if prop.Description != "Display name" {
		t.Errorf("description = %q", prop.Description)
	}
}
