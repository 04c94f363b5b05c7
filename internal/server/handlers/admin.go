// Handles server administration: sweeps, statistics and history.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/maruel/storefront/internal/catalog"
	"github.com/maruel/storefront/internal/server/dto"
	"github.com/maruel/storefront/internal/storage"
)

// AdminHandler handles administrator requests.
type AdminHandler struct {
	svc *Services
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(svc *Services) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// Sweep runs the orphan sweep now. Per backend failures are reported in the
// response; only a failure to read the records fails the request.
func (h *AdminHandler) Sweep(ctx context.Context, req *dto.SweepRequest) (*dto.SweepResponse, error) {
	if h.svc.Sweeper == nil {
		return nil, dto.NewAPIError(http.StatusNotFound, dto.ErrorCodeNotFound, "Sweeper is not configured")
	}
	sw := *h.svc.Sweeper
	sw.DryRun = req.DryRun
	rep, err := sw.Sweep(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	if err := rep.Err(); err != nil {
		slog.WarnContext(ctx, "Sweep finished with errors", "err", err)
	}
	return sweepToDTO(rep), nil
}

// Stats reports record counts and blob cleanup counters per collection.
func (h *AdminHandler) Stats(ctx context.Context, req *dto.StatsRequest) (*dto.StatsResponse, error) {
	out := &dto.StatsResponse{Collections: map[string]dto.CollectionStats{}}
	for _, c := range h.svc.Catalog.Collections() {
		rows, err := c.List(ctx, storage.Query{})
		if err != nil {
			return nil, apiError(err)
		}
		s := c.Stats()
		out.Collections[c.Name()] = dto.CollectionStats{
			Records:             len(rows),
			BlobDeletes:         s.BlobDeletes,
			BlobCleanupFailures: s.BlobCleanupFailures,
			BlobRollbacks:       s.BlobRollbacks,
		}
	}
	return out, nil
}

// History lists the recorded changes of a kind.
func (h *AdminHandler) History(ctx context.Context, req *dto.HistoryRequest) (*dto.HistoryResponse, error) {
	if h.svc.History == nil {
		return nil, dto.NewAPIError(http.StatusNotFound, dto.ErrorCodeNotFound, "History is not enabled")
	}
	if _, ok := catalog.LookupKind(req.Kind); !ok {
		return nil, dto.NotFound("Kind " + req.Kind)
	}
	log, err := h.svc.History.Log(ctx, catalog.Path(h.svc.Catalog.Dir(), req.Kind), req.Limit)
	if err != nil {
		return nil, dto.InternalWithError("Failed to read history", err)
	}
	out := &dto.HistoryResponse{Kind: req.Kind, Commits: make([]dto.Commit, len(log))}
	for i, c := range log {
		out.Commits[i] = dto.Commit{Hash: c.Hash, Message: c.Message, When: c.When}
	}
	return out, nil
}

func sweepToDTO(rep *storage.SweepReport) *dto.SweepResponse {
	out := &dto.SweepResponse{Live: rep.Live, DryRun: rep.DryRun, Backends: make([]dto.SweepBackend, len(rep.Backends))}
	for i := range rep.Backends {
		b := &rep.Backends[i]
		out.Backends[i] = dto.SweepBackend{
			Name:    b.Name,
			Scanned: b.Scanned,
			Deleted: b.Deleted,
			Skipped: b.Skipped,
			Orphans: b.Orphans,
			Errors:  b.Errors,
		}
	}
	return out
}
