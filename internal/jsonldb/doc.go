// Package jsonldb provides a generic, concurrent-safe, JSON-array-backed data store.
//
// # Overview
//
// The package centers around [Table], a container that stores rows as a single
// pretty-printed JSON array in one file. The file is the only state: every
// operation reads it from disk, so external edits are picked up immediately.
//
// # Concurrency: Pessimistic Locking
//
// [Table.Modify] holds an exclusive lock for the entire read-modify-write
// operation. The lock is keyed by the cleaned absolute file path and shared
// by every Table opened on that path within the process, so two concurrent
// mutations can never lose each other's update. Readers ([Table.Load]) take
// no lock; writes go through a temporary file and a rename, so a reader sees
// either the previous or the next complete array.
//
// Multiple processes writing the same file are not coordinated.
//
// # File Format
//
// A top-level JSON array indented with two spaces followed by a newline. An
// empty collection is "[]". A missing file is created on [NewTable].
//
// # Schemas
//
// [Schema] and [RequiredFields] reflect a Go struct into a JSON Schema through
// github.com/invopop/jsonschema. Required fields are declared with the
// `jsonschema:"required"` struct tag.
package jsonldb
