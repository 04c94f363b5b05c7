package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
)

// S3Config configures an S3Store.
type S3Config struct {
	Bucket string
	Region string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO. Path style
	// addressing is used when set.
	Endpoint string
	// Prefix is prepended to every object key, e.g. "uploads/".
	Prefix string
	// PublicBaseURL overrides the URL objects are served from.
	PublicBaseURL string
	// ACL is the canned ACL applied on upload. Empty leaves the bucket default.
	ACL string
	// Timeout bounds each request. 0 relies on the caller's context only.
	Timeout time.Duration
}

// S3Store keeps blobs as objects in an S3 bucket. References are the
// objects' public URLs.
type S3Store struct {
	client  s3iface.S3API
	cfg     S3Config
	baseURL string
}

// NewS3Store creates a store using the default AWS credential chain.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("S3 bucket name is required")
	}
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewS3StoreWithClient(s3.New(sess), cfg)
}

// NewS3StoreWithClient creates a store around an existing client.
func NewS3StoreWithClient(client s3iface.S3API, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("S3 bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	var base string
	switch {
	case cfg.PublicBaseURL != "":
		base = strings.TrimSuffix(cfg.PublicBaseURL, "/") + "/"
	case cfg.Endpoint != "":
		base = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket + "/"
	default:
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", cfg.Bucket, cfg.Region)
	}
	return &S3Store{client: client, cfg: cfg, baseURL: base}, nil
}

// Name implements Store.
func (s *S3Store) Name() string {
	return "s3"
}

// Put uploads the blob under a random key.
func (s *S3Store) Put(ctx context.Context, u *Upload) (string, error) {
	data, err := io.ReadAll(u.Data)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	key := s.cfg.Prefix + uuid.NewString() + extFor(u)
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if u.ContentType != "" {
		in.ContentType = aws.String(u.ContentType)
	}
	if s.cfg.ACL != "" {
		in.ACL = aws.String(s.cfg.ACL)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.client.PutObjectWithContext(ctx, in); err != nil {
		return "", s.wrap("put", err)
	}
	return s.baseURL + key, nil
}

// Delete removes the object ref points to.
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	key, ok := s.keyOf(ref)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotOwned, ref)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return s.wrap("delete", err)
	}
	return nil
}

// List enumerates every object under the prefix, following pagination.
func (s *S3Store) List(ctx context.Context) ([]Object, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var out []Object
	in := &s3.ListObjectsV2Input{Bucket: aws.String(s.cfg.Bucket)}
	if s.cfg.Prefix != "" {
		in.Prefix = aws.String(s.cfg.Prefix)
	}
	err := s.client.ListObjectsV2PagesWithContext(ctx, in, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			ref := s.baseURL + key
			out = append(out, Object{Identity: ref, Ref: ref, Modified: aws.TimeValue(obj.LastModified)})
		}
		return true
	})
	if err != nil {
		return nil, s.wrap("list", err)
	}
	return out, nil
}

// Owns reports whether ref is a URL under the bucket's base URL.
func (s *S3Store) Owns(ref string) bool {
	_, ok := s.keyOf(ref)
	return ok
}

// Identity returns the full URL.
func (s *S3Store) Identity(ref string) string {
	return ref
}

func (s *S3Store) keyOf(ref string) (string, bool) {
	key, ok := strings.CutPrefix(ref, s.baseURL)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func (s *S3Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

func (s *S3Store) wrap(op string, err error) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return unavailable(op, fmt.Errorf("%s: %s: %w", aerr.Code(), aerr.Message(), err))
	}
	return unavailable(op, err)
}
