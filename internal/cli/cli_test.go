package cli

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/maruel/storefront/internal/storage"
)

func TestLoadDotEnv(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    map[string]string
		wantErr bool
	}{
		{"empty", "", map[string]string{}, false},
		{"plain", "HTTP=:9090\n# comment\n\nLOG_LEVEL = debug\nnoequal\n", map[string]string{"HTTP": ":9090", "LOG_LEVEL": "debug"}, false},
		{"quoted", `ADMIN_PASSWORD="a b=c"`, map[string]string{"ADMIN_PASSWORD": "a b=c"}, false},
		{"single quotes", "X='y'", nil, true},
		{"unbalanced", "X=y'", nil, true},
		{"bad quotes", `X="y`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			got, err := LoadDotEnv(dir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
	t.Run("missing", func(t *testing.T) {
		got, err := LoadDotEnv(t.TempDir())
		if err != nil || len(got) != 0 {
			t.Errorf("got %v, %v", got, err)
		}
	})
}

func TestSetLevel(t *testing.T) {
	ll := &slog.LevelVar{}
	for level, want := range map[string]slog.Level{"debug": slog.LevelDebug, "info": slog.LevelInfo, "warn": slog.LevelWarn, "error": slog.LevelError} {
		if err := SetLevel(ll, level); err != nil || ll.Level() != want {
			t.Errorf("%s: %v %v", level, ll.Level(), err)
		}
	}
	if err := SetLevel(ll, "loud"); err == nil {
		t.Error("expected error")
	}
}

func TestOpenBlobs(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		t.Setenv("AWS_ACCESS_KEY_ID", "")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "")
		cfg := storage.DefaultBlobConfig()
		b, err := OpenBlobs(&cfg, t.TempDir(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if b.S3 != nil || len(b.Backends()) != 1 || b.Store.Name() != "local" {
			t.Errorf("blobs = %+v", b)
		}
	})
	t.Run("local with credentials", func(t *testing.T) {
		t.Setenv("AWS_ACCESS_KEY_ID", "id")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
		cfg := storage.DefaultBlobConfig()
		b, err := OpenBlobs(&cfg, t.TempDir(), map[string]string{"AWS_S3_BUCKET_NAME": "shop"})
		if err != nil {
			t.Fatal(err)
		}
		if b.S3 == nil || len(b.Backends()) != 2 || b.Store.Name() != "local" {
			t.Fatalf("blobs = %+v", b)
		}
		if !b.S3.Owns("https://shop.s3.us-east-1.amazonaws.com/uploads/x.png") {
			t.Error("bucket override ignored")
		}
	})
	t.Run("s3", func(t *testing.T) {
		t.Setenv("AWS_ACCESS_KEY_ID", "")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "")
		cfg := storage.DefaultBlobConfig()
		cfg.Backend = storage.BlobS3
		b, err := OpenBlobs(&cfg, t.TempDir(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if b.Store.Name() != "s3" || len(b.Backends()) != 2 {
			t.Errorf("blobs = %+v", b)
		}
	})
}

func TestExportAWS(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	if err := ExportAWS(map[string]string{"AWS_REGION": "us-east-1", "AWS_ACCESS_KEY_ID": "id"}); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("AWS_REGION"); got != "eu-west-1" {
		t.Errorf("AWS_REGION = %q", got)
	}
	if got := os.Getenv("AWS_ACCESS_KEY_ID"); got != "id" {
		t.Errorf("AWS_ACCESS_KEY_ID = %q", got)
	}
}
