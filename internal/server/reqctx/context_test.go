package reqctx

import (
	"context"
	"net/http/httptest"
	"testing"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"ipv4 with port", "192.0.2.1:1234", nil, "192.0.2.1"},
		{"ipv6 with port", "[::1]:8080", nil, "::1"},
		{"no port", "192.0.2.1", nil, "192.0.2.1"},
		{"forwarded chain", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"}, "203.0.113.5"},
		{"forwarded single", "10.0.0.1:1", map[string]string{"X-Forwarded-For": " 203.0.113.6 "}, "203.0.113.6"},
		{"real ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "203.0.113.7"}, "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if ClientIP(ctx) != "" || UserAgent(ctx) != "" || Subject(ctx) != "" {
		t.Error("empty context returned values")
	}
	ctx = WithSubject(WithUserAgent(WithClientIP(ctx, "192.0.2.1"), "curl"), "admin")
	if ClientIP(ctx) != "192.0.2.1" || UserAgent(ctx) != "curl" || Subject(ctx) != "admin" {
		t.Errorf("values = %q %q %q", ClientIP(ctx), UserAgent(ctx), Subject(ctx))
	}
}
