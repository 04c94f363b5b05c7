package jsonldb

import (
	"reflect"
	"slices"

	"github.com/invopop/jsonschema"
)

// Schema returns the inline JSON Schema of T.
//
// Only fields tagged `jsonschema:"required"` are listed as required.
func Schema[T any]() *jsonschema.Schema {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true, RequiredFromJSONSchemaTags: true}
	return r.ReflectFromType(t)
}

// RequiredFields returns the JSON names of the required fields of T.
func RequiredFields[T any]() []string {
	return slices.Clone(Schema[T]().Required)
}

// FieldNames returns the JSON names of all properties of T in declaration order.
func FieldNames[T any]() []string {
	s := Schema[T]()
	var names []string
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}
