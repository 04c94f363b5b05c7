package blob

import (
	"context"
	"fmt"
)

// Multi writes to a primary store and routes deletions to whichever store
// owns a reference. It lets records keep pointing at blobs in a backend that
// is no longer the upload target.
type Multi struct {
	primary Store
	all     []Store
}

// NewMulti returns a Multi uploading to primary.
func NewMulti(primary Store, others ...Store) *Multi {
	return &Multi{primary: primary, all: append([]Store{primary}, others...)}
}

// Backends returns every store, primary first.
func (m *Multi) Backends() []Store {
	return m.all
}

// Name returns the primary backend name.
func (m *Multi) Name() string {
	return m.primary.Name()
}

// Put implements Store.
func (m *Multi) Put(ctx context.Context, u *Upload) (string, error) {
	return m.primary.Put(ctx, u)
}

// Delete implements Store.
func (m *Multi) Delete(ctx context.Context, ref string) error {
	if s := m.owner(ref); s != nil {
		return s.Delete(ctx, ref)
	}
	return fmt.Errorf("%w: %q", ErrNotOwned, ref)
}

// List concatenates the listings of all backends.
func (m *Multi) List(ctx context.Context) ([]Object, error) {
	var out []Object
	for _, s := range m.all {
		objs, err := s.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name(), err)
		}
		out = append(out, objs...)
	}
	return out, nil
}

// Owns implements Store.
func (m *Multi) Owns(ref string) bool {
	return m.owner(ref) != nil
}

// Identity implements Store.
func (m *Multi) Identity(ref string) string {
	if s := m.owner(ref); s != nil {
		return s.Identity(ref)
	}
	return ref
}

func (m *Multi) owner(ref string) Store {
	for _, s := range m.all {
		if s.Owns(ref) {
			return s
		}
	}
	return nil
}
