package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore keeps blobs as files in a directory served under a URL prefix.
type LocalStore struct {
	dir    string
	tmpDir string
	prefix string
}

// NewLocalStore creates the directory if needed. urlPrefix is the path the
// directory is served at, e.g. "/uploads/".
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	s := &LocalStore{dir: dir, tmpDir: filepath.Join(dir, ".tmp"), prefix: urlPrefix}
	if err := os.MkdirAll(s.tmpDir, 0o755); err != nil { //nolint:gosec // G301: uploads are served publicly
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return s, nil
}

// Dir returns the directory holding the blobs.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Name implements Store.
func (s *LocalStore) Name() string {
	return "local"
}

// Put writes the upload to a temporary file and renames it into place.
func (s *LocalStore) Put(ctx context.Context, u *Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", unavailable("put", err)
	}
	name := "product-" + uuid.NewString() + extFor(u)
	f, err := os.CreateTemp(s.tmpDir, "upload-*")
	if err != nil {
		return "", unavailable("put", err)
	}
	tmp := f.Name()
	if _, err := io.Copy(f, u.Data); err != nil {
		return "", errors.Join(unavailable("put", err), f.Close(), os.Remove(tmp))
	}
	if err := f.Close(); err != nil {
		return "", errors.Join(unavailable("put", err), os.Remove(tmp))
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		return "", errors.Join(unavailable("put", err), os.Remove(tmp))
	}
	return s.prefix + name, nil
}

// Delete removes the file ref points to.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	name, ok := s.nameOf(ref)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotOwned, ref)
	}
	if err := ctx.Err(); err != nil {
		return unavailable("delete", err)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return unavailable("delete", err)
	}
	return nil
}

// List returns the regular files in the directory, skipping dot files.
func (s *LocalStore) List(ctx context.Context) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("list", err)
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, unavailable("list", err)
	}
	var out []Object
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		obj := Object{Identity: e.Name(), Ref: s.prefix + e.Name()}
		if info, err := e.Info(); err == nil {
			obj.Modified = info.ModTime()
		}
		out = append(out, obj)
	}
	return out, nil
}

// Owns reports whether ref is a file name under the URL prefix.
func (s *LocalStore) Owns(ref string) bool {
	_, ok := s.nameOf(ref)
	return ok
}

// Identity reduces ref to its base name.
func (s *LocalStore) Identity(ref string) string {
	ref, _, _ = strings.Cut(ref, "?")
	return path.Base(ref)
}

func (s *LocalStore) nameOf(ref string) (string, bool) {
	name, ok := strings.CutPrefix(ref, s.prefix)
	if !ok || name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", false
	}
	return name, true
}
