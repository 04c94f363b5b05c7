// Manages server configuration stored in server_config.json.

package storage

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/maruel/storefront/internal/blob"
	"golang.org/x/crypto/bcrypt"
)

// ServerConfig stores all server-wide configuration.
// Loaded from server_config.json, created with defaults if missing.
type ServerConfig struct {
	// JWTSecret is the secret used to sign admin session tokens.
	// Auto-generated if empty on first load.
	JWTSecret []byte `json:"jwt_secret"`

	// AdminPasswordHash is the bcrypt hash of the admin password. Empty
	// disables admin login.
	AdminPasswordHash string `json:"admin_password_hash,omitempty"`

	// Quotas defines server-wide resource limits.
	Quotas ServerQuotas `json:"quotas"`

	// RateLimits defines rate limiting configuration.
	RateLimits RateLimits `json:"rate_limits"`

	// Blob selects and configures the image backend.
	Blob BlobConfig `json:"blob"`

	// IDs maps a collection name to its id policy, IDPolicyInt or
	// IDPolicyToken. Missing collections use IDPolicyInt.
	IDs map[string]string `json:"ids,omitempty"`

	// Sweep configures the weekly orphan sweep.
	Sweep SweepConfig `json:"sweep"`
}

// Id policy names.
const (
	IDPolicyInt   = "int"
	IDPolicyToken = "token"
)

// RateLimits defines rate limiting configuration (requests per minute).
type RateLimits struct {
	// AuthRatePerMin limits admin login attempts per IP.
	// 0 means unlimited.
	AuthRatePerMin int `json:"auth_rate_per_min"`

	// WriteRatePerMin limits admin write operations.
	// 0 means unlimited.
	WriteRatePerMin int `json:"write_rate_per_min"`

	// PublicWriteRatePerMin limits order and contact submissions per IP.
	// 0 means unlimited.
	PublicWriteRatePerMin int `json:"public_write_rate_per_min"`
}

// Validate checks that rate limit values are non-negative.
func (r *RateLimits) Validate() error {
	if r.AuthRatePerMin < 0 {
		return errors.New("auth_rate_per_min must be non-negative")
	}
	if r.WriteRatePerMin < 0 {
		return errors.New("write_rate_per_min must be non-negative")
	}
	if r.PublicWriteRatePerMin < 0 {
		return errors.New("public_write_rate_per_min must be non-negative")
	}
	return nil
}

// DefaultRateLimits returns the default rate limits.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		AuthRatePerMin:        5,  // 5 req/min for login
		WriteRatePerMin:       60, // 60 req/min for admin writes
		PublicWriteRatePerMin: 20, // 20 req/min for orders and contacts
	}
}

// ServerQuotas defines server-wide resource limits.
type ServerQuotas struct {
	// MaxRequestBodyBytes limits the size of any single HTTP request body.
	MaxRequestBodyBytes int64 `json:"max_request_body_bytes"`

	// MaxUploadBytes limits the size of one uploaded image.
	MaxUploadBytes int64 `json:"max_upload_bytes"`
}

// Validate checks that the quotas are positive and consistent.
func (q *ServerQuotas) Validate() error {
	if q.MaxRequestBodyBytes <= 0 {
		return errors.New("max_request_body_bytes must be positive")
	}
	if q.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}
	if q.MaxUploadBytes > q.MaxRequestBodyBytes {
		return errors.New("max_upload_bytes must not exceed max_request_body_bytes")
	}
	return nil
}

// DefaultServerQuotas returns the default server-wide quotas.
func DefaultServerQuotas() ServerQuotas {
	return ServerQuotas{
		MaxRequestBodyBytes: 10 * 1024 * 1024, // 10 MiB
		MaxUploadBytes:      5 * 1024 * 1024,  // 5 MiB
	}
}

// Blob backend names.
const (
	BlobLocal = "local"
	BlobS3    = "s3"
)

// BlobConfig selects the image backend.
type BlobConfig struct {
	// Backend is BlobLocal or BlobS3. New uploads go to it; references held
	// by the other backend are still cleaned up when it is configured.
	Backend string   `json:"backend"`
	S3      S3Config `json:"s3"`
}

// S3Config is the JSON form of blob.S3Config.
type S3Config struct {
	Bucket        string `json:"bucket"`
	Region        string `json:"region"`
	Endpoint      string `json:"endpoint,omitempty"`
	Prefix        string `json:"prefix"`
	PublicBaseURL string `json:"public_base_url,omitempty"`
	ACL           string `json:"acl,omitempty"`
	// RequestTimeoutSec bounds each S3 request.
	RequestTimeoutSec int `json:"request_timeout"`
}

// Options converts to the blob package configuration.
func (c *S3Config) Options() blob.S3Config {
	return blob.S3Config{
		Bucket:        c.Bucket,
		Region:        c.Region,
		Endpoint:      c.Endpoint,
		Prefix:        c.Prefix,
		PublicBaseURL: c.PublicBaseURL,
		ACL:           c.ACL,
		Timeout:       time.Duration(c.RequestTimeoutSec) * time.Second,
	}
}

// Validate checks the backend name.
func (b *BlobConfig) Validate() error {
	switch b.Backend {
	case BlobLocal:
	case BlobS3:
		if b.S3.Bucket == "" {
			return errors.New("s3.bucket is required")
		}
	default:
		return fmt.Errorf("unknown backend %q", b.Backend)
	}
	if b.S3.RequestTimeoutSec < 0 {
		return errors.New("s3.request_timeout must be non-negative")
	}
	return nil
}

// DefaultBlobConfig returns the local backend with the S3 defaults filled in.
func DefaultBlobConfig() BlobConfig {
	return BlobConfig{
		Backend: BlobLocal,
		S3: S3Config{
			Bucket:            "for-the-best-queenz",
			Region:            "us-east-1",
			Prefix:            "uploads/",
			ACL:               "public-read",
			RequestTimeoutSec: 30,
		},
	}
}

// SweepConfig schedules the orphan sweep.
type SweepConfig struct {
	Enabled bool   `json:"enabled"`
	Weekday string `json:"weekday"`
	Hour    int    `json:"hour"`
	// Timezone is an IANA name. Empty means the server's local time.
	Timezone string `json:"timezone,omitempty"`
	// MinAgeMinutes spares blobs younger than this.
	MinAgeMinutes int `json:"min_age_minutes"`
}

// Schedule returns the parsed schedule.
func (s *SweepConfig) Schedule() (Schedule, error) {
	d, err := ParseWeekday(s.Weekday)
	if err != nil {
		return Schedule{}, err
	}
	loc := time.Local
	if s.Timezone != "" {
		if loc, err = time.LoadLocation(s.Timezone); err != nil {
			return Schedule{}, fmt.Errorf("invalid timezone: %w", err)
		}
	}
	return Schedule{Weekday: d, Hour: s.Hour, Location: loc}, nil
}

// Validate checks the schedule.
func (s *SweepConfig) Validate() error {
	if s.Hour < 0 || s.Hour > 23 {
		return errors.New("hour must be between 0 and 23")
	}
	if s.MinAgeMinutes < 0 {
		return errors.New("min_age_minutes must be non-negative")
	}
	_, err := s.Schedule()
	return err
}

// DefaultSweepConfig runs the sweep on Sundays at 2AM.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{Enabled: true, Weekday: "sunday", Hour: 2, MinAgeMinutes: 60}
}

// IDPolicyFor returns the id policy name of a collection.
func (c *ServerConfig) IDPolicyFor(collection string) string {
	if p := c.IDs[collection]; p != "" {
		return p
	}
	return IDPolicyInt
}

// SetAdminPassword replaces the admin password hash.
func (c *ServerConfig) SetAdminPassword(password string) error {
	if password == "" {
		return errors.New("admin password must not be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	c.AdminPasswordHash = string(h)
	return nil
}

// CheckAdminPassword reports whether password matches the stored hash.
func (c *ServerConfig) CheckAdminPassword(password string) bool {
	if c.AdminPasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.AdminPasswordHash), []byte(password)) == nil
}

// Validate checks that the configuration is valid.
func (c *ServerConfig) Validate() error {
	if len(c.JWTSecret) == 0 {
		return errors.New("jwt_secret is required")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 bytes")
	}
	if err := c.Quotas.Validate(); err != nil {
		return fmt.Errorf("quotas: %w", err)
	}
	if err := c.RateLimits.Validate(); err != nil {
		return fmt.Errorf("rate_limits: %w", err)
	}
	if err := c.Blob.Validate(); err != nil {
		return fmt.Errorf("blob: %w", err)
	}
	for name, p := range c.IDs {
		if p != IDPolicyInt && p != IDPolicyToken {
			return fmt.Errorf("ids: %s: unknown policy %q", name, p)
		}
	}
	if err := c.Sweep.Validate(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	return nil
}

// LoadServerConfig loads configuration from dataDir/server_config.json.
// Creates the file with defaults if it doesn't exist.
// Auto-generates JWTSecret if empty.
func LoadServerConfig(dataDir string) (*ServerConfig, error) {
	path := filepath.Join(dataDir, "server_config.json")

	cfg := ServerConfig{
		Quotas:     DefaultServerQuotas(),
		RateLimits: DefaultRateLimits(),
		Blob:       DefaultBlobConfig(),
		Sweep:      DefaultSweepConfig(),
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is constructed from dataDir, not user input
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read server_config.json: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse server_config.json: %w", err)
		}
	}

	modified := false
	if len(cfg.JWTSecret) == 0 {
		cfg.JWTSecret = make([]byte, 32)
		if _, err := rand.Read(cfg.JWTSecret); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		modified = true
	}

	if modified || errors.Is(err, os.ErrNotExist) {
		if err := cfg.Save(dataDir); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server_config.json: %w", err)
	}
	return &cfg, nil
}

// Save saves configuration to dataDir/server_config.json.
func (c *ServerConfig) Save(dataDir string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "server_config.json"), data, 0o600); err != nil {
		return fmt.Errorf("failed to write server_config.json: %w", err)
	}
	return nil
}
