// Package cli holds the start up code shared by the storefront binaries:
// logging, the .env file and the blob backends.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/maruel/storefront/internal/blob"
	"github.com/maruel/storefront/internal/storage"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// InitLogger installs a tint handler on stderr as the default logger and
// returns its level.
func InitLogger() *slog.LevelVar {
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelInfo)
	// Skip timestamps when running under systemd (it adds its own).
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			if a.Key == "ip" {
				if v := a.Value.String(); v == "127.0.0.1" || v == "::1" {
					return slog.Attr{}
				}
			}
			if emptyAttr(a.Value.Any()) {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)
	return ll
}

func emptyAttr(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case bool:
		return !t
	case uint64:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	case time.Time:
		return t.IsZero()
	case time.Duration:
		return t == 0
	case nil:
		return true
	}
	return false
}

// SetLevel parses a -log-level value.
func SetLevel(ll *slog.LevelVar, level string) error {
	switch level {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
		ll.Set(slog.LevelInfo)
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %q", level)
	}
	return nil
}

// LoadDotEnv reads dataDir/.env. A missing file yields an empty map.
func LoadDotEnv(dataDir string) (map[string]string, error) {
	env := make(map[string]string)
	path := filepath.Join(dataDir, ".env")
	content, err := os.ReadFile(path) //nolint:gosec // G304: path is constructed from dataDir flag, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return env, nil
		}
		return nil, err
	}
	for line := range strings.SplitSeq(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if strings.HasPrefix(val, "'") || strings.HasSuffix(val, "'") {
			if strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'") {
				return nil, fmt.Errorf("single quotes are not supported for wrapping in .env: %s", line)
			}
			return nil, fmt.Errorf("unbalanced single quotes in .env: %s", line)
		}
		if strings.HasPrefix(val, "\"") {
			unquoted, err := strconv.Unquote(val)
			if err != nil {
				return nil, fmt.Errorf("failed to unquote %s: %w", key, err)
			}
			val = unquoted
		}
		env[key] = val
	}
	return env, nil
}

// awsKeys are exported to the process environment for the AWS SDK
// credential chain.
var awsKeys = []string{"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_REGION"}

// ExportAWS copies the AWS keys found in env into the process environment
// unless they are already set there.
func ExportAWS(env map[string]string) error {
	for _, k := range awsKeys {
		if v := env[k]; v != "" && os.Getenv(k) == "" {
			if err := os.Setenv(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// hasAWSCredentials reports whether static AWS credentials are available.
func hasAWSCredentials() bool {
	return os.Getenv("AWS_ACCESS_KEY_ID") != "" && os.Getenv("AWS_SECRET_ACCESS_KEY") != ""
}

// Blobs is the configured set of blob backends.
type Blobs struct {
	Local *blob.LocalStore
	// S3 is nil when the s3 backend is neither selected nor reachable with
	// configured credentials.
	S3    *blob.S3Store
	Store *blob.Multi
}

// OpenBlobs opens the local store in uploadsDir and, when it is the selected
// backend or AWS credentials are configured, the S3 store. env may override
// the bucket with AWS_S3_BUCKET_NAME and the region with AWS_REGION.
func OpenBlobs(cfg *storage.BlobConfig, uploadsDir string, env map[string]string) (*Blobs, error) {
	local, err := blob.NewLocalStore(uploadsDir, "/uploads/")
	if err != nil {
		return nil, fmt.Errorf("failed to open uploads directory: %w", err)
	}
	b := &Blobs{Local: local}
	if cfg.Backend == storage.BlobS3 || hasAWSCredentials() {
		s3cfg := cfg.S3.Options()
		if v := env["AWS_S3_BUCKET_NAME"]; v != "" {
			s3cfg.Bucket = v
		}
		if v := env["AWS_REGION"]; v != "" {
			s3cfg.Region = v
		}
		if b.S3, err = blob.NewS3Store(s3cfg); err != nil {
			return nil, err
		}
	}
	switch {
	case cfg.Backend == storage.BlobS3:
		b.Store = blob.NewMulti(b.S3, local)
	case b.S3 != nil:
		b.Store = blob.NewMulti(local, b.S3)
	default:
		b.Store = blob.NewMulti(local)
	}
	return b, nil
}

// Backends returns the stores an orphan sweep covers.
func (b *Blobs) Backends() []blob.Store {
	return b.Store.Backends()
}

// Version returns the module version from the build info.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	v := info.Main.Version
	if v == "" || v == "(devel)" {
		v = "dev"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			v += "-" + s.Value[:12]
		}
	}
	return v
}
