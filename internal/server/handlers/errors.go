// Provides helper functions for mapping and writing error responses.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/maruel/storefront/internal/blob"
	"github.com/maruel/storefront/internal/server/dto"
	"github.com/maruel/storefront/internal/storage"
)

// apiError maps storage and blob errors onto their API representation.
func apiError(err error) error {
	var ews dto.ErrorWithStatus
	if errors.As(err, &ews) {
		return err
	}
	var ve *storage.ValidationError
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &ve):
		return dto.ValidationFailed(ve.Error(), ve.Fields, ve.Payload)
	case errors.Is(err, storage.ErrNotFound):
		return dto.NotFound("Record")
	case errors.Is(err, storage.ErrConflict):
		return dto.Conflict(err.Error())
	case errors.Is(err, blob.ErrRejected):
		return dto.InvalidFormat(err.Error())
	case errors.As(err, &mbe):
		return dto.PayloadTooLarge(mbe.Limit)
	case errors.Is(err, storage.ErrStorageUnavailable), errors.Is(err, blob.ErrUnavailable):
		return dto.StorageUnavailable(err)
	}
	return dto.InternalWithError("internal error", err)
}

// writeErrorResponse writes an error as a JSON response.
// Use this in raw http.HandlerFunc handlers that don't use server.Wrap.
func writeErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var ews dto.ErrorWithStatus
	if !errors.As(apiError(err), &ews) {
		return
	}
	if ews.StatusCode() >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Handler error", "err", err, "statusCode", ews.StatusCode(), "code", ews.Code())
	} else {
		slog.InfoContext(r.Context(), "Request rejected", "err", err, "statusCode", ews.StatusCode(), "code", ews.Code())
	}
	writeJSON(w, r, ews.StatusCode(), dto.ErrorResponse{
		Error:   dto.ErrorDetails{Code: ews.Code(), Message: ews.Error()},
		Details: ews.Details(),
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "err", err)
	}
}
