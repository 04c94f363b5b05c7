package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadServerConfig(t *testing.T) {
	t.Run("creates defaults", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := LoadServerConfig(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(cfg.JWTSecret) != 32 {
			t.Errorf("JWTSecret length = %d", len(cfg.JWTSecret))
		}
		if cfg.Quotas.MaxUploadBytes != 5*1024*1024 || cfg.RateLimits.AuthRatePerMin != 5 {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.Blob.Backend != BlobLocal || cfg.Blob.S3.Bucket != "for-the-best-queenz" {
			t.Errorf("Blob = %+v", cfg.Blob)
		}
		info, err := os.Stat(filepath.Join(dir, "server_config.json"))
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("mode = %v", info.Mode())
		}
		again, err := LoadServerConfig(dir)
		if err != nil {
			t.Fatal(err)
		}
		if string(again.JWTSecret) != string(cfg.JWTSecret) {
			t.Error("JWT secret regenerated")
		}
	})

	t.Run("keeps defaults for missing keys", func(t *testing.T) {
		dir := t.TempDir()
		data := `{"blob": {"backend": "s3", "s3": {"bucket": "b"}}, "ids": {"orders": "token"}}`
		if err := os.WriteFile(filepath.Join(dir, "server_config.json"), []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadServerConfig(dir)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Blob.S3.Bucket != "b" || cfg.Blob.S3.Region != "us-east-1" {
			t.Errorf("S3 = %+v", cfg.Blob.S3)
		}
		if cfg.IDPolicyFor("orders") != IDPolicyToken || cfg.IDPolicyFor("products") != IDPolicyInt {
			t.Errorf("IDs = %v", cfg.IDs)
		}
		if o := cfg.Blob.S3.Options(); o.Timeout != 30*time.Second || o.Prefix != "uploads/" {
			t.Errorf("Options() = %+v", o)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			data string
		}{
			{"bad json", `{`},
			{"bad backend", `{"blob": {"backend": "ftp"}}`},
			{"bad ids", `{"ids": {"orders": "uuid"}}`},
			{"bad hour", `{"sweep": {"weekday": "sunday", "hour": 24}}`},
			{"bad weekday", `{"sweep": {"weekday": "someday"}}`},
			{"upload over body", `{"quotas": {"max_request_body_bytes": 10, "max_upload_bytes": 20}}`},
			{"negative rate", `{"rate_limits": {"auth_rate_per_min": -1}}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				dir := t.TempDir()
				if err := os.WriteFile(filepath.Join(dir, "server_config.json"), []byte(tt.data), 0o600); err != nil {
					t.Fatal(err)
				}
				if _, err := LoadServerConfig(dir); err == nil {
					t.Error("expected error")
				}
			})
		}
	})
}

func TestAdminPassword(t *testing.T) {
	cfg := &ServerConfig{}
	if cfg.CheckAdminPassword("") {
		t.Error("empty hash accepted a password")
	}
	if err := cfg.SetAdminPassword(""); err == nil {
		t.Error("empty password accepted")
	}
	if err := cfg.SetAdminPassword("hunter2"); err != nil {
		t.Fatal(err)
	}
	if !cfg.CheckAdminPassword("hunter2") || cfg.CheckAdminPassword("hunter3") {
		t.Error("CheckAdminPassword mismatch")
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var back ServerConfig
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.CheckAdminPassword("hunter2") {
		t.Error("hash lost in JSON")
	}
}

func TestSweepConfigSchedule(t *testing.T) {
	c := SweepConfig{Weekday: "monday", Hour: 3, Timezone: "UTC"}
	s, err := c.Schedule()
	if err != nil {
		t.Fatal(err)
	}
	if s.Weekday != time.Monday || s.Hour != 3 || s.Location != time.UTC {
		t.Errorf("Schedule() = %+v", s)
	}
	c.Timezone = "Nowhere/Land"
	if _, err := c.Schedule(); err == nil {
		t.Error("expected timezone error")
	}
}
