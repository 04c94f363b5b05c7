package dto

// --- Health ---

// HealthRequest is a request to check server health.
type HealthRequest struct{}

// Validate is a no-op for HealthRequest.
func (r *HealthRequest) Validate() error {
	return nil
}

// --- Auth ---

// LoginRequest is a request to log in as the administrator.
type LoginRequest struct {
	Password string `json:"password"`
}

// Validate validates the login request fields.
func (r *LoginRequest) Validate() error {
	if r.Password == "" {
		return MissingField("password")
	}
	return nil
}

// --- Records ---

// ListRecordsRequest is a request to list the records of a kind.
type ListRecordsRequest struct {
	Featured string `query:"featured"`
	Category string `query:"category"`
	Limit    int    `query:"limit"`
	Sort     string `query:"sort"`
}

// Validate validates the list request fields. The sort order is checked by
// the store.
func (r *ListRecordsRequest) Validate() error {
	if r.Limit < 0 {
		return ValidationFailed("limit must be non-negative", []string{"limit"}, nil)
	}
	switch r.Featured {
	case "", "true", "false":
	default:
		return ValidationFailed("featured must be true or false", []string{"featured"}, nil)
	}
	return nil
}

// GetRecordRequest is a request to get one record.
type GetRecordRequest struct {
	ID string `path:"id"`
}

// Validate validates the get record request fields.
func (r *GetRecordRequest) Validate() error {
	if r.ID == "" {
		return MissingField("id")
	}
	return nil
}

// DeleteRecordRequest is a request to delete one record.
type DeleteRecordRequest struct {
	ID string `path:"id"`
}

// Validate validates the delete record request fields.
func (r *DeleteRecordRequest) Validate() error {
	if r.ID == "" {
		return MissingField("id")
	}
	return nil
}

// GetSchemaRequest is a request for the JSON schema of a kind.
type GetSchemaRequest struct {
	Kind string `path:"kind"`
}

// Validate validates the schema request fields.
func (r *GetSchemaRequest) Validate() error {
	if r.Kind == "" {
		return MissingField("kind")
	}
	return nil
}

// --- Admin ---

// SweepRequest is a request to run the orphan sweep now.
type SweepRequest struct {
	DryRun bool `query:"dry_run"`
}

// Validate is a no-op for SweepRequest.
func (r *SweepRequest) Validate() error {
	return nil
}

// StatsRequest is a request for collection statistics.
type StatsRequest struct{}

// Validate is a no-op for StatsRequest.
func (r *StatsRequest) Validate() error {
	return nil
}

// HistoryRequest is a request for the change history of a kind.
type HistoryRequest struct {
	Kind  string `path:"kind"`
	Limit int    `query:"limit"`
}

// Validate validates the history request fields.
func (r *HistoryRequest) Validate() error {
	if r.Kind == "" {
		return MissingField("kind")
	}
	if r.Limit < 0 {
		return ValidationFailed("limit must be non-negative", []string{"limit"}, nil)
	}
	return nil
}
