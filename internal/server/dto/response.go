package dto

import "time"

// --- Common Responses ---

// HealthResponse reports server status.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// --- Auth Responses ---

// LoginResponse is a response from logging in.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// --- Record Responses ---

// Record is a stored record as returned to clients.
type Record map[string]any

// RecordList is a response containing records.
type RecordList []Record

// MutationResponse carries a message and the affected record under a
// kind-specific key, e.g. {"message": "...", "product": {...}}.
type MutationResponse map[string]any

// --- Admin Responses ---

// SweepBackend is the sweep outcome of one blob backend.
type SweepBackend struct {
	Name    string   `json:"name"`
	Scanned int      `json:"scanned"`
	Deleted int      `json:"deleted"`
	Skipped int      `json:"skipped"`
	Orphans []string `json:"orphans,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// SweepResponse is the outcome of an orphan sweep.
type SweepResponse struct {
	Live     int            `json:"live"`
	DryRun   bool           `json:"dryRun"`
	Backends []SweepBackend `json:"backends"`
}

// CollectionStats describes one collection.
type CollectionStats struct {
	Records             int   `json:"records"`
	BlobDeletes         int64 `json:"blobDeletes"`
	BlobCleanupFailures int64 `json:"blobCleanupFailures"`
	BlobRollbacks       int64 `json:"blobRollbacks"`
}

// StatsResponse reports per collection statistics.
type StatsResponse struct {
	Collections map[string]CollectionStats `json:"collections"`
}

// Commit is one change of a collection file.
type Commit struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	When    time.Time `json:"when"`
}

// HistoryResponse lists the changes of a collection, newest first.
type HistoryResponse struct {
	Kind    string   `json:"kind"`
	Commits []Commit `json:"commits"`
}
