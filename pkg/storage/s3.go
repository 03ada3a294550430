package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var _ Storage = (*S3Storage)(nil)

// S3Storage implements Storage on S3-compatible object storage.
type S3Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	cfg       Config
}

// New creates an S3Storage. Returns ErrInvalidConfig when the bucket or
// credentials are missing.
func New(cfg Config) (*S3Storage, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	client := s3.New(s3.Options{}, opts...)
	return &S3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		cfg:       cfg,
	}, nil
}

// Put uploads an object. At most MaxObjectSize bytes are read from r.
func (s *S3Storage) Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*Object, error) {
	o := &putOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if size > s.cfg.MaxObjectSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrObjectTooLarge, size, s.cfg.MaxObjectSize)
	}
	if size == 0 {
		return nil, ErrEmptyObject
	}

	contentType, body, actual, err := sniff(io.LimitReader(r, s.cfg.MaxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUploadFailed, err)
	}
	switch {
	case actual == 0:
		return nil, ErrEmptyObject
	case actual > s.cfg.MaxObjectSize:
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrObjectTooLarge, s.cfg.MaxObjectSize)
	}
	if o.contentType != "" {
		contentType = o.contentType
	}

	key := o.key
	if key == "" {
		key = s.buildKey(o.prefix, contentType)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(actual),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrUploadFailed)
	}

	return &Object{Key: key, ContentType: contentType, Size: actual}, nil
}

func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrNotFound)
	}
	return out.Body, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return wrapS3Error(err, ErrDeleteFailed)
	}
	return nil
}

// URL returns a pre-signed GET URL. It does not check that the object exists.
func (s *S3Storage) URL(ctx context.Context, key string, opts ...URLOption) (string, error) {
	o := &urlOptions{expiry: s.cfg.SignedURLExpiry}
	for _, opt := range opts {
		opt(o)
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}
	if o.downloadName != "" {
		input.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", o.downloadName))
	}

	req, err := s.presigner.PresignGetObject(ctx, input, func(po *s3.PresignOptions) {
		po.Expires = o.expiry
	})
	if err != nil {
		return "", wrapS3Error(err, ErrPresignFailed)
	}
	return req.URL, nil
}

// Stat returns object metadata without downloading it.
func (s *S3Storage) Stat(ctx context.Context, key string) (*Object, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrNotFound)
	}
	return &Object{
		Key:         key,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
	}, nil
}

// Ping checks that the bucket is reachable with the configured credentials.
func (s *S3Storage) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.cfg.Bucket)})
	if err != nil {
		return wrapS3Error(err, ErrHealthcheckFailed)
	}
	return nil
}

// buildKey returns {KeyPrefix}/{prefix}/{uuid}{ext}, skipping empty segments.
func (s *S3Storage) buildKey(prefix, contentType string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.cfg.KeyPrefix, prefix} {
		for seg := range strings.SplitSeq(p, "/") {
			if seg = sanitizePathSegment(seg); seg != "" {
				parts = append(parts, seg)
			}
		}
	}
	parts = append(parts, uuid.NewString()+ExtFromMIME(contentType))
	return path.Join(parts...)
}

var unsafeSegment = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizePathSegment strips traversal sequences and unsafe characters.
func sanitizePathSegment(segment string) string {
	segment = strings.Trim(segment, " /\\")
	segment = strings.ReplaceAll(segment, "..", "")
	segment = unsafeSegment.ReplaceAllString(segment, "_")
	return url.PathEscape(segment)
}
