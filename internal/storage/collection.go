// Implements the entity store: CRUD over one JSON-array collection file with
// the lifecycle of an associated image blob.

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maruel/storefront/internal/blob"
	"github.com/maruel/storefront/internal/jsonldb"
)

const cleanupTimeout = 30 * time.Second

// Normalizer coerces types and fills derived fields of a record before it is
// validated and persisted. prev is nil when adding.
type Normalizer func(r, prev Record) error

// Op is the kind of persisted mutation.
type Op string

// Mutation kinds.
const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
)

// Change describes a persisted mutation.
type Change struct {
	Collection string
	Op         Op
	ID         string
	// Path is the collection file.
	Path string
}

// Observer is notified after each successful persist.
type Observer interface {
	OnPersist(ctx context.Context, c Change)
}

// Options configures a Collection.
type Options struct {
	// Name is the collection name, e.g. "products".
	Name string
	// Path is the collection file.
	Path   string
	Policy Policy
	// IDs defaults to IntegerIDs with a counter file at Path + ".seq".
	IDs IDPolicy
	// ImageField is the field holding a blob reference. Empty disables
	// uploads and blob cleanup.
	ImageField string
	Blobs      blob.Store
	Normalize  Normalizer
	Observers  []Observer
	// Now defaults to time.Now.
	Now func() time.Time
}

// Stats counts blob lifecycle events.
type Stats struct {
	BlobDeletes         int64 `json:"blob_deletes"`
	BlobCleanupFailures int64 `json:"blob_cleanup_failures"`
	BlobRollbacks       int64 `json:"blob_rollbacks"`
}

// Collection is the entity store for one kind.
//
// Mutations hold the collection lock from read to write and through the
// observer notifications, so an observer sees the file as its own mutation
// left it. Reads take no lock.
// Superseded and removed blobs are deleted in the background after the
// record mutation is persisted; failures are logged and counted.
type Collection struct {
	name       string
	table      *jsonldb.Table[Record]
	policy     Policy
	ids        IDPolicy
	imageField string
	blobs      blob.Store
	normalize  Normalizer
	observers  []Observer
	now        func() time.Time

	// mu serializes a mutation with its notifications.
	mu              sync.Mutex
	cleanup         sync.WaitGroup
	blobDeletes     atomic.Int64
	cleanupFailures atomic.Int64
	rollbacks       atomic.Int64
}

// Open opens or creates the collection file.
func Open(opts *Options) (*Collection, error) {
	if opts.Name == "" {
		return nil, errors.New("collection name is required")
	}
	if opts.ImageField != "" && opts.Blobs == nil {
		return nil, fmt.Errorf("%s: image field requires a blob store", opts.Name)
	}
	table, err := jsonldb.NewTable[Record](opts.Path)
	if err != nil {
		return nil, unavailable(err)
	}
	c := &Collection{
		name:       opts.Name,
		table:      table,
		policy:     opts.Policy,
		ids:        opts.IDs,
		imageField: opts.ImageField,
		blobs:      opts.Blobs,
		normalize:  opts.Normalize,
		observers:  opts.Observers,
		now:        opts.Now,
	}
	if c.policy.Kind == "" {
		c.policy.Kind = opts.Name
	}
	if c.ids == nil {
		c.ids = NewIntegerIDs(table.Path() + ".seq")
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Path returns the collection file.
func (c *Collection) Path() string {
	return c.table.Path()
}

// Policy returns the validation policy.
func (c *Collection) Policy() Policy {
	return c.policy
}

// Stats returns the blob lifecycle counters.
func (c *Collection) Stats() Stats {
	return Stats{
		BlobDeletes:         c.blobDeletes.Load(),
		BlobCleanupFailures: c.cleanupFailures.Load(),
		BlobRollbacks:       c.rollbacks.Load(),
	}
}

// Wait blocks until pending blob cleanups finish.
func (c *Collection) Wait() {
	c.cleanup.Wait()
}

// List returns the records matching q.
func (c *Collection) List(ctx context.Context, q Query) ([]Record, error) {
	if err := q.Validate(); err != nil {
		return nil, c.withKind(err)
	}
	rows, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return q.apply(rows), nil
}

// Get returns the record with the given id.
func (c *Collection) Get(ctx context.Context, id string) (Record, error) {
	rows, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(rows, id)
	if i < 0 {
		return nil, notFound(c.name, id)
	}
	return rows[i], nil
}

// Add validates fields, stores the optional upload as the image, assigns an
// id and timestamps, and appends the record.
//
// When the upload was stored but the record could not be, the blob is
// deleted again.
func (c *Collection) Add(ctx context.Context, fields Record, up *blob.Upload) (Record, error) {
	rec := stripManaged(fields)
	if up != nil && c.imageField == "" {
		return nil, c.withKind(Invalid("image", "uploads are not accepted"))
	}
	// Reject invalid payloads before anything is uploaded.
	pre := rec.Clone()
	if up != nil {
		pre[c.imageField] = "upload"
	}
	if err := c.prepare(pre, nil); err != nil {
		return nil, err
	}
	newRef, err := c.upload(ctx, up)
	if err != nil {
		return nil, err
	}
	if newRef != "" {
		rec[c.imageField] = newRef
	}
	out, err := c.modify(ctx, OpAdd, func(rows []Record) ([]Record, Record, error) {
		if err := c.prepare(rec, nil); err != nil {
			return nil, nil, err
		}
		id, err := c.ids.NextID(rows)
		if err != nil {
			return nil, nil, err
		}
		now := c.now().UTC().Format(TimeFormat)
		rec[FieldID] = id
		rec[FieldCreatedAt] = now
		rec[FieldUpdatedAt] = now
		out, err := normalizeJSON(rec)
		if err != nil {
			return nil, nil, err
		}
		return append(rows, out), out, nil
	})
	if err != nil {
		c.rollback(ctx, newRef)
		return nil, c.mutationErr(err)
	}
	return out, nil
}

// Update shallow-merges fields over the record, optionally replacing its
// image with the upload. The id and createdAt never change.
//
// A store-owned image that the merge replaced is deleted after the record is
// persisted.
func (c *Collection) Update(ctx context.Context, id string, fields Record, up *blob.Upload) (Record, error) {
	patch := stripManaged(fields)
	if up != nil && c.imageField == "" {
		return nil, c.withKind(Invalid("image", "uploads are not accepted"))
	}
	newRef, err := c.upload(ctx, up)
	if err != nil {
		return nil, err
	}
	if newRef != "" {
		patch[c.imageField] = newRef
	}
	var prev Record
	out, err := c.modify(ctx, OpUpdate, func(rows []Record) ([]Record, Record, error) {
		i := indexOf(rows, id)
		if i < 0 {
			return nil, nil, notFound(c.name, id)
		}
		prev = rows[i]
		merged := prev.Clone()
		maps.Copy(merged, patch)
		if err := c.prepare(merged, prev); err != nil {
			return nil, nil, err
		}
		merged[FieldUpdatedAt] = c.now().UTC().Format(TimeFormat)
		out, err := normalizeJSON(merged)
		if err != nil {
			return nil, nil, err
		}
		rows[i] = out
		return rows, out, nil
	})
	if err != nil {
		c.rollback(ctx, newRef)
		return nil, c.mutationErr(err)
	}
	if old := c.imageRef(prev); old != "" && old != c.imageRef(out) {
		c.deleteLater(ctx, out.ID(), old)
	}
	return out, nil
}

// Remove deletes the record and, in the background, its store-owned image.
func (c *Collection) Remove(ctx context.Context, id string) (Record, error) {
	out, err := c.modify(ctx, OpRemove, func(rows []Record) ([]Record, Record, error) {
		i := indexOf(rows, id)
		if i < 0 {
			return nil, nil, notFound(c.name, id)
		}
		out := rows[i]
		return slices.Delete(rows, i, i+1), out, nil
	})
	if err != nil {
		return nil, c.mutationErr(err)
	}
	if ref := c.imageRef(out); ref != "" {
		c.deleteLater(ctx, out.ID(), ref)
	}
	return out, nil
}

// ImageRefs returns the non-empty image references of all records.
func (c *Collection) ImageRefs(ctx context.Context) ([]string, error) {
	if c.imageField == "" {
		return nil, nil
	}
	rows, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	var refs []string
	for _, r := range rows {
		if ref := c.imageRef(r); ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

func (c *Collection) load(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}
	rows, err := c.table.Load()
	if err != nil {
		return nil, unavailable(fmt.Errorf("%s: %w", c.name, err))
	}
	return rows, nil
}

// prepare normalizes r in place and checks the required fields.
func (c *Collection) prepare(r, prev Record) error {
	if c.normalize != nil {
		if err := c.normalize(r, prev); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) && ve.Payload == nil {
				ve.Payload = r.Clone()
			}
			return c.withKind(err)
		}
	}
	return c.policy.Check(r)
}

func (c *Collection) upload(ctx context.Context, up *blob.Upload) (string, error) {
	if up == nil {
		return "", nil
	}
	ref, err := c.blobs.Put(ctx, up)
	if err != nil {
		if errors.Is(err, blob.ErrRejected) {
			return "", c.withKind(Invalid(c.imageField, err.Error()))
		}
		return "", unavailable(err)
	}
	return ref, nil
}

// rollback deletes a blob uploaded for a mutation that was not persisted.
func (c *Collection) rollback(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	c.rollbacks.Add(1)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := c.blobs.Delete(ctx, ref); err != nil {
		c.cleanupFailures.Add(1)
		slog.WarnContext(ctx, "Failed to roll back uploaded blob", "collection", c.name, "ref", ref, "err", err)
	}
}

// deleteLater deletes a store-owned blob in the background. External URLs
// are left untouched.
func (c *Collection) deleteLater(ctx context.Context, id, ref string) {
	if c.blobs == nil || !c.blobs.Owns(ref) {
		return
	}
	c.cleanup.Add(1)
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer c.cleanup.Done()
		ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
		defer cancel()
		if err := c.blobs.Delete(ctx, ref); err != nil {
			c.cleanupFailures.Add(1)
			slog.WarnContext(ctx, "Failed to delete blob", "collection", c.name, "id", id, "ref", ref, "err", err)
			return
		}
		c.blobDeletes.Add(1)
		slog.DebugContext(ctx, "Deleted blob", "collection", c.name, "id", id, "ref", ref)
	}()
}

// modify applies fn to the rows under the table lock. Once the result is
// persisted the observers are notified before any other mutation of the
// collection starts.
func (c *Collection) modify(ctx context.Context, op Op, fn func([]Record) ([]Record, Record, error)) (Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out Record
	err := c.table.Modify(func(rows []Record) ([]Record, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		rows, out, err = fn(rows)
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	c.notify(ctx, op, out.ID())
	return out, nil
}

func (c *Collection) notify(ctx context.Context, op Op, id string) {
	ch := Change{Collection: c.name, Op: op, ID: id, Path: c.table.Path()}
	for _, o := range c.observers {
		o.OnPersist(ctx, ch)
	}
}

func (c *Collection) imageRef(r Record) string {
	if c.imageField == "" || r == nil {
		return ""
	}
	return r.String(c.imageField)
}

// withKind fills in the kind of a ValidationError.
func (c *Collection) withKind(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Kind == "" {
		ve.Kind = c.policy.Kind
	}
	return err
}

// mutationErr passes through domain errors and maps everything else to
// ErrStorageUnavailable.
func (c *Collection) mutationErr(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return err
	}
	return unavailable(fmt.Errorf("%s: %w", c.name, err))
}

func indexOf(rows []Record, id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(rows, func(r Record) bool { return r.ID() == id })
}

// stripManaged copies fields without the store-managed keys.
func stripManaged(fields Record) Record {
	r := fields.Clone()
	delete(r, FieldID)
	delete(r, FieldCreatedAt)
	delete(r, FieldUpdatedAt)
	return r
}
