// Reconciles blob storage against the image references of all records.

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/maruel/storefront/internal/blob"
	"golang.org/x/sync/errgroup"
)

// Sweeper deletes blobs that no record references.
type Sweeper struct {
	// Sources are the collections whose image references are live.
	Sources []*Collection
	// Backends are swept independently and concurrently.
	Backends []blob.Store
	// MinAge spares blobs modified more recently than this, which protects
	// uploads whose record is not persisted yet.
	MinAge time.Duration
	// DryRun reports orphans without deleting them.
	DryRun bool
	// Concurrency bounds parallel deletions per backend. Defaults to 8.
	Concurrency int
}

// BackendReport is the outcome of sweeping one backend.
type BackendReport struct {
	Name    string `json:"name"`
	Scanned int    `json:"scanned"`
	Deleted int    `json:"deleted"`
	Skipped int    `json:"skipped"`
	// Orphans lists the deleted references, or the candidates on a dry run.
	Orphans []string `json:"orphans,omitempty"`
	Errors  []string `json:"errors,omitempty"`

	errs []error
}

// SweepReport is the outcome of a sweep.
type SweepReport struct {
	Live     int             `json:"live"`
	DryRun   bool            `json:"dry_run,omitempty"`
	Backends []BackendReport `json:"backends"`
}

// Deleted returns the number of blobs deleted from the named backend.
func (r *SweepReport) Deleted(backend string) int {
	for i := range r.Backends {
		if r.Backends[i].Name == backend {
			return r.Backends[i].Deleted
		}
	}
	return 0
}

// Err joins every listing and deletion error.
func (r *SweepReport) Err() error {
	var errs []error
	for i := range r.Backends {
		errs = append(errs, r.Backends[i].errs...)
	}
	return errors.Join(errs...)
}

// Sweep builds the live reference set and deletes every unreferenced blob.
//
// It fails without deleting anything when a source collection cannot be
// read. Backend failures are recorded in the report and do not stop the
// other backends.
func (s *Sweeper) Sweep(ctx context.Context) (*SweepReport, error) {
	var refs []string
	for _, src := range s.Sources {
		r, err := src.ImageRefs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load live references from %s: %w", src.Name(), err)
		}
		refs = append(refs, r...)
	}
	report := &SweepReport{Live: len(refs), DryRun: s.DryRun, Backends: make([]BackendReport, len(s.Backends))}
	var g errgroup.Group
	for i, b := range s.Backends {
		g.Go(func() error {
			report.Backends[i] = s.sweepBackend(ctx, b, refs)
			return nil
		})
	}
	_ = g.Wait()
	return report, nil
}

func (s *Sweeper) sweepBackend(ctx context.Context, b blob.Store, refs []string) BackendReport {
	rep := BackendReport{Name: b.Name()}
	live := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		live[b.Identity(ref)] = struct{}{}
	}
	objs, err := b.List(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to list blobs", "backend", rep.Name, "err", err)
		rep.fail(err)
		return rep
	}
	rep.Scanned = len(objs)
	cutoff := time.Now().Add(-s.MinAge)

	var mu sync.Mutex
	var g errgroup.Group
	limit := s.Concurrency
	if limit <= 0 {
		limit = 8
	}
	g.SetLimit(limit)
	for _, o := range objs {
		if _, ok := live[o.Identity]; ok {
			continue
		}
		if s.MinAge > 0 && o.Modified.After(cutoff) {
			rep.Skipped++
			continue
		}
		if s.DryRun {
			rep.Orphans = append(rep.Orphans, o.Ref)
			continue
		}
		g.Go(func() error {
			err := b.Delete(ctx, o.Ref)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.WarnContext(ctx, "Failed to delete orphaned blob", "backend", rep.Name, "ref", o.Ref, "err", err)
				rep.fail(fmt.Errorf("%s: %w", o.Ref, err))
				return nil
			}
			rep.Deleted++
			rep.Orphans = append(rep.Orphans, o.Ref)
			return nil
		})
	}
	_ = g.Wait()
	slices.Sort(rep.Orphans)
	slog.InfoContext(ctx, "Swept blobs", "backend", rep.Name, "scanned", rep.Scanned, "deleted", rep.Deleted, "skipped", rep.Skipped, "errors", len(rep.errs), "dryRun", s.DryRun)
	return rep
}

func (r *BackendReport) fail(err error) {
	r.errs = append(r.errs, err)
	r.Errors = append(r.Errors, err.Error())
}
