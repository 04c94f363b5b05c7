// Package blob stores uploaded files such as product images.
//
// Two backends satisfy [Store] identically: [LocalStore] keeps files in a
// directory served under a URL prefix, and [S3Store] keeps objects in an S3
// bucket addressed by their public URL. A reference (ref) is the string that
// ends up in a record's image field.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrUnavailable is returned when the backend cannot be reached or its
	// deadline expired.
	ErrUnavailable = errors.New("blob storage unavailable")
	// ErrNotOwned is returned when deleting a reference the store does not own.
	ErrNotOwned = errors.New("reference not owned by this store")
	// ErrRejected is returned when an upload fails type or size checks.
	ErrRejected = errors.New("upload rejected")
)

// Upload is a blob supplied by a client.
type Upload struct {
	Data        io.Reader
	Size        int64
	ContentType string
	// Filename is the client side name. Only its extension is kept.
	Filename string
}

// Object is one blob enumerated by [Store.List].
type Object struct {
	// Identity is the normalized key used to match live references.
	Identity string
	Ref      string
	// Modified is the last modification time, zero when unknown.
	Modified time.Time
}

// Store is the blob storage contract.
type Store interface {
	// Name identifies the backend in logs and sweep reports.
	Name() string
	// Put stores the upload and returns its reference.
	Put(ctx context.Context, u *Upload) (string, error)
	// Delete removes the blob. Deleting a missing blob succeeds.
	Delete(ctx context.Context, ref string) error
	// List enumerates all blobs held by the store.
	List(ctx context.Context) ([]Object, error)
	// Owns reports whether ref points into this store.
	Owns(ref string) bool
	// Identity normalizes ref the same way List reports identities.
	Identity(ref string) string
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// extFor returns the lowercase extension of the upload, falling back to its
// content type.
func extFor(u *Upload) string {
	if ext := strings.ToLower(filepath.Ext(u.Filename)); ext != "" {
		return ext
	}
	return extByContentType[baseContentType(u.ContentType)]
}

func baseContentType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}
