// Handles CRUD requests for one record kind.

package handlers

import (
	"context"
	"net/http"

	"github.com/maruel/storefront/internal/catalog"
	"github.com/maruel/storefront/internal/server/dto"
	"github.com/maruel/storefront/internal/storage"
)

// RecordHandler serves the records of one kind.
type RecordHandler struct {
	kind catalog.Kind
	col  *storage.Collection
	cfg  *Config
}

// NewRecordHandler creates a handler for the kind's collection.
func NewRecordHandler(kind catalog.Kind, col *storage.Collection, cfg *Config) *RecordHandler {
	return &RecordHandler{kind: kind, col: col, cfg: cfg}
}

// List returns the records matching the query parameters.
func (h *RecordHandler) List(ctx context.Context, req *dto.ListRecordsRequest) (*dto.RecordList, error) {
	q := storage.Query{Limit: req.Limit, Sort: req.Sort}
	if req.Featured != "" || req.Category != "" {
		q.Filter = map[string]string{}
		if req.Featured != "" {
			q.Filter["featured"] = req.Featured
		}
		if req.Category != "" {
			q.Filter["category"] = req.Category
		}
	}
	rows, err := h.col.List(ctx, q)
	if err != nil {
		return nil, apiError(err)
	}
	out := make(dto.RecordList, len(rows))
	for i, r := range rows {
		out[i] = dto.Record(r)
	}
	return &out, nil
}

// Get returns one record.
func (h *RecordHandler) Get(ctx context.Context, req *dto.GetRecordRequest) (*dto.Record, error) {
	r, err := h.col.Get(ctx, req.ID)
	if err != nil {
		return nil, h.notFound(err)
	}
	out := dto.Record(r)
	return &out, nil
}

// Delete removes one record.
func (h *RecordHandler) Delete(ctx context.Context, req *dto.DeleteRecordRequest) (*dto.MutationResponse, error) {
	r, err := h.col.Remove(ctx, req.ID)
	if err != nil {
		return nil, h.notFound(err)
	}
	return &dto.MutationResponse{
		"message":                 h.kind.Title + " deleted successfully",
		"deleted" + h.kind.Title: r,
	}, nil
}

// Create adds a record from a JSON or multipart body and replies 201.
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := readPayload(r, h.kind.ImageField, h.cfg.Quotas.MaxUploadBytes)
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	defer p.Close()
	rec, err := h.col.Add(r.Context(), p.fields, p.upload)
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.MutationResponse{
		"message":        h.kind.Title + " " + h.kind.Created + " successfully",
		h.kind.Singular: rec,
	})
}

// Update merges a JSON or multipart body into the record at {id}.
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := readPayload(r, h.kind.ImageField, h.cfg.Quotas.MaxUploadBytes)
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	defer p.Close()
	rec, err := h.col.Update(r.Context(), id, p.fields, p.upload)
	if err != nil {
		writeErrorResponse(w, r, h.notFound(err))
		return
	}
	writeJSON(w, r, http.StatusOK, dto.MutationResponse{
		"message":        h.kind.Title + " updated successfully",
		h.kind.Singular: rec,
	})
}

// notFound names the kind in not found errors.
func (h *RecordHandler) notFound(err error) error {
	err = apiError(err)
	if e, ok := err.(*dto.APIError); ok && e.Code() == dto.ErrorCodeNotFound {
		return dto.NotFound(h.kind.Title)
	}
	return err
}
