package handlers

import (
	"context"

	"github.com/invopop/jsonschema"
	"github.com/maruel/storefront/internal/catalog"
	"github.com/maruel/storefront/internal/server/dto"
)

// SchemaHandler serves the JSON schema of each kind.
type SchemaHandler struct{}

// Get returns the schema of the requested kind.
func (SchemaHandler) Get(ctx context.Context, req *dto.GetSchemaRequest) (*jsonschema.Schema, error) {
	k, ok := catalog.LookupKind(req.Kind)
	if !ok {
		return nil, dto.NotFound("Kind " + req.Kind)
	}
	return k.Schema(), nil
}
