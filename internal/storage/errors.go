// Package storage is the entity store of the shop: collections of JSON
// records with an optional image blob each, the orphan sweeper that removes
// unreferenced blobs, and the server configuration.
//
// A Collection serializes its mutations and persists the whole file on each
// one. Blob deletions are best effort and never fail a request.
package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is reserved for concurrent mutation detection. Mutations
	// are serialized per collection so it is currently never returned.
	ErrConflict = errors.New("conflicting modification")
	// ErrStorageUnavailable is returned when the collection file or the blob
	// backend cannot be read or written.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError reports a rejected payload.
type ValidationError struct {
	Kind string
	// Fields lists the offending field names.
	Fields []string
	// Reason is set for invalid values. It is empty for missing fields.
	Reason string
	// Payload is the rejected record, for debugging.
	Payload Record
}

func (e *ValidationError) Error() string {
	fields := strings.Join(e.Fields, ", ")
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s field %s: %s", e.Kind, fields, e.Reason)
	}
	return fmt.Sprintf("missing required %s fields: %s", e.Kind, fields)
}

// Invalid returns a ValidationError for a field holding an unusable value.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Fields: []string{field}, Reason: reason}
}

func notFound(collection, id string) error {
	return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
}

func unavailable(err error) error {
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
