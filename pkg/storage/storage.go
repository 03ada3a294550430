package storage

import (
	"context"
	"io"
	"time"
)

// Storage is an object store for seed files.
type Storage interface {
	// Put uploads size bytes read from r. A negative size means unknown;
	// the body is then buffered to compute it.
	Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*Object, error)

	// Get opens an object. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	Delete(ctx context.Context, key string) error

	// URL returns a pre-signed download URL for the object.
	URL(ctx context.Context, key string, opts ...URLOption) (string, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Bucket    string `env:"STORAGE_BUCKET"`
	AccessKey string `env:"STORAGE_ACCESS_KEY"`
	SecretKey string `env:"STORAGE_SECRET_KEY"`

	// Custom endpoint for MinIO and other S3-compatible services.
	Endpoint string `env:"STORAGE_ENDPOINT"`
	Region   string `env:"STORAGE_REGION" envDefault:"us-east-1"`

	// Path-style addressing, required for MinIO.
	PathStyle bool `env:"STORAGE_PATH_STYLE" envDefault:"false"`

	// Prefix prepended to every generated key.
	KeyPrefix string `env:"STORAGE_KEY_PREFIX" envDefault:"seeds"`

	MaxObjectSize   int64         `env:"STORAGE_MAX_OBJECT_SIZE" envDefault:"67108864"`
	SignedURLExpiry time.Duration `env:"STORAGE_SIGNED_URL_EXPIRY" envDefault:"15m"`
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// Object describes a stored seed file.
type Object struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Default configuration values.
const (
	DefaultRegion          = "us-east-1"
	DefaultMaxObjectSize   = 64 << 20
	DefaultSignedURLExpiry = 15 * time.Minute
)

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.MaxObjectSize <= 0 {
		c.MaxObjectSize = DefaultMaxObjectSize
	}
	if c.SignedURLExpiry <= 0 {
		c.SignedURLExpiry = DefaultSignedURLExpiry
	}
}

func (c *Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}
