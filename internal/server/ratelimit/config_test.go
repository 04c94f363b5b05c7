package ratelimit

import (
	"net/http"
	"testing"
)

func TestConfigMatch(t *testing.T) {
	c := NewConfig(5, 20, 60)
	defer c.Close()
	tests := []struct {
		name   string
		admin  bool
		method string
		path   string
		want   string
	}{
		{"login", false, http.MethodPost, "/api/auth/login", "auth"},
		{"order", false, http.MethodPost, "/api/orders", "public-write"},
		{"contact", false, http.MethodPost, "/api/contacts", "public-write"},
		{"public read", false, http.MethodGet, "/api/products", ""},
		{"health", false, http.MethodGet, "/api/health", ""},
		{"admin create", true, http.MethodPost, "/api/products", "write"},
		{"admin update", true, http.MethodPut, "/api/products/1", "write"},
		{"admin delete", true, http.MethodDelete, "/api/orders/1", "write"},
		{"admin read", true, http.MethodGet, "/api/orders", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tier *Tier
			if tt.admin {
				tier = c.MatchAdmin(tt.method, tt.path)
			} else {
				tier = c.MatchPublic(tt.method, tt.path)
			}
			got := ""
			if tier != nil {
				got = tier.Name
			}
			if got != tt.want {
				t.Errorf("tier = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigDisabled(t *testing.T) {
	c := NewConfig(0, 0, 0)
	defer c.Close()
	if c.MatchPublic(http.MethodPost, "/api/auth/login") != nil {
		t.Error("disabled auth tier matched")
	}
	if c.MatchAdmin(http.MethodDelete, "/api/products/1") != nil {
		t.Error("disabled write tier matched")
	}
	var nilConfig *Config
	if nilConfig.MatchPublic(http.MethodPost, "/api/orders") != nil {
		t.Error("nil config matched")
	}
}
