package dto

import (
	"errors"
	"net/http"
	"slices"
	"testing"
)

func TestAPIError(t *testing.T) {
	t.Run("NewAPIError", func(t *testing.T) {
		err := NewAPIError(http.StatusNotFound, ErrorCodeNotFound, "resource not found")
		if err.StatusCode() != http.StatusNotFound {
			t.Errorf("Expected status code %d, got %d", http.StatusNotFound, err.StatusCode())
		}
		if err.Code() != ErrorCodeNotFound {
			t.Errorf("Expected code %s, got %s", ErrorCodeNotFound, err.Code())
		}
		if err.Error() != "resource not found" {
			t.Errorf("Expected message 'resource not found', got '%s'", err.Error())
		}
		if err.Details() == nil {
			t.Error("Expected Details() to return non-nil map")
		}
	})
	t.Run("WithDetails initializes nil map", func(t *testing.T) {
		err := (&APIError{statusCode: http.StatusBadRequest, code: ErrorCodeValidationFailed, message: "test"}).
			WithDetails(map[string]any{"key": "value"})
		if err.Details()["key"] != "value" {
			t.Error("Expected WithDetails to initialize nil map")
		}
	})
	t.Run("Wrap", func(t *testing.T) {
		inner := errors.New("disk full")
		err := InternalWithError("failed to save", inner)
		if err.Error() != "failed to save: disk full" {
			t.Errorf("Error() = %q", err.Error())
		}
		if !errors.Is(err, inner) {
			t.Error("expected errors.Is to find the wrapped error")
		}
	})
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *APIError
		status int
		code   ErrorCode
	}{
		{"NotFound", NotFound("product"), http.StatusNotFound, ErrorCodeNotFound},
		{"BadRequest", BadRequest("bad"), http.StatusBadRequest, ErrorCodeValidationFailed},
		{"MissingField", MissingField("name"), http.StatusBadRequest, ErrorCodeValidationFailed},
		{"InvalidFormat", InvalidFormat("not an image"), http.StatusBadRequest, ErrorCodeInvalidFormat},
		{"Unauthorized", Unauthorized("no token"), http.StatusUnauthorized, ErrorCodeUnauthorized},
		{"Conflict", Conflict("busy"), http.StatusConflict, ErrorCodeConflict},
		{"PayloadTooLarge", PayloadTooLarge(10), http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge},
		{"RateLimitExceeded", RateLimitExceeded(3), http.StatusTooManyRequests, ErrorCodeRateLimitExceeded},
		{"StorageUnavailable", StorageUnavailable(errors.New("x")), http.StatusServiceUnavailable, ErrorCodeStorageError},
		{"Internal", Internal("boom"), http.StatusInternalServerError, ErrorCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.StatusCode() != tt.status {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.status)
			}
			if tt.err.Code() != tt.code {
				t.Errorf("Code() = %s, want %s", tt.err.Code(), tt.code)
			}
			var ews ErrorWithStatus = tt.err
			if ews.Error() == "" {
				t.Error("empty message")
			}
		})
	}
}

func TestValidationFailed(t *testing.T) {
	err := ValidationFailed("missing", []string{"name", "price"}, map[string]any{"stock": 1})
	if got := err.Details()["fields"].([]string); !slices.Equal(got, []string{"name", "price"}) {
		t.Errorf("fields = %v", got)
	}
	if err.Details()["payload"].(map[string]any)["stock"] != 1 {
		t.Errorf("payload = %v", err.Details()["payload"])
	}
	if _, ok := MissingField("id").Details()["payload"]; ok {
		t.Error("MissingField() has a payload")
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Validatable
		wantErr bool
	}{
		{"login ok", &LoginRequest{Password: "x"}, false},
		{"login empty", &LoginRequest{}, true},
		{"list ok", &ListRecordsRequest{Featured: "true", Limit: 3}, false},
		{"list negative limit", &ListRecordsRequest{Limit: -1}, true},
		{"list bad featured", &ListRecordsRequest{Featured: "yes"}, true},
		{"get ok", &GetRecordRequest{ID: "1"}, false},
		{"get empty", &GetRecordRequest{}, true},
		{"delete empty", &DeleteRecordRequest{}, true},
		{"schema empty", &GetSchemaRequest{}, true},
		{"history ok", &HistoryRequest{Kind: "products"}, false},
		{"history negative limit", &HistoryRequest{Kind: "products", Limit: -2}, true},
		{"sweep", &SweepRequest{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}
