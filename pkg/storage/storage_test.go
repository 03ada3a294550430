package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T, cfg Config) *S3Storage {
	t.Helper()

	if cfg.Bucket == "" {
		cfg.Bucket = "seeds"
	}
	cfg.AccessKey = "access"
	cfg.SecretKey = "secret"
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		s := newTestStorage(t, Config{})
		require.NotNil(t, s.client)
		require.NotNil(t, s.presigner)
		assert.Equal(t, DefaultRegion, s.cfg.Region)
		assert.EqualValues(t, DefaultMaxObjectSize, s.cfg.MaxObjectSize)
		assert.Equal(t, DefaultSignedURLExpiry, s.cfg.SignedURLExpiry)
	})

	t.Run("custom endpoint", func(t *testing.T) {
		t.Parallel()

		s := newTestStorage(t, Config{Endpoint: "http://localhost:9000", PathStyle: true})
		assert.Equal(t, "http://localhost:9000", s.cfg.Endpoint)
	})

	t.Run("missing fields", func(t *testing.T) {
		t.Parallel()

		for _, cfg := range []Config{
			{},
			{Bucket: "seeds"},
			{Bucket: "seeds", AccessKey: "a"},
			{AccessKey: "a", SecretKey: "s"},
		} {
			s, err := New(cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Nil(t, s)
		}
	})
}

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()

	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Bucket: "seeds"}.Enabled())
}

func TestS3Storage_buildKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		keyPrefix   string
		prefix      string
		contentType string
		wantPrefix  string
		wantExt     string
	}{
		{"default prefix", "seeds", "", MIMEOctetStream, "seeds/", ".bin"},
		{"job prefix", "seeds", "jobs/42", "text/plain; charset=utf-8", "seeds/jobs/42/", ".txt"},
		{"no key prefix", "", "jobs/7", "application/json", "jobs/7/", ".json"},
		{"traversal removed", "seeds", "../../etc", "image/png", "seeds/etc/", ".png"},
		{"unsafe characters", "seeds", "a b", MIMEOctetStream, "seeds/a_b/", ".bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestStorage(t, Config{KeyPrefix: tt.keyPrefix})
			key := s.buildKey(tt.prefix, tt.contentType)
			assert.True(t, strings.HasPrefix(key, tt.wantPrefix), key)
			assert.True(t, strings.HasSuffix(key, tt.wantExt), key)
			assert.NotContains(t, key, "..")

			name := strings.TrimSuffix(strings.TrimPrefix(key, tt.wantPrefix), tt.wantExt)
			assert.Len(t, name, 36)
		})
	}
}

func TestS3Storage_buildKey_Unique(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t, Config{})
	assert.NotEqual(t, s.buildKey("", ""), s.buildKey("", ""))
}

func TestS3Storage_Put_Rejected(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t, Config{MaxObjectSize: 8})
	ctx := context.Background()

	t.Run("declared size too large", func(t *testing.T) {
		t.Parallel()

		_, err := s.Put(ctx, strings.NewReader("0123456789"), 10)
		require.ErrorIs(t, err, ErrObjectTooLarge)
	})

	t.Run("declared empty", func(t *testing.T) {
		t.Parallel()

		_, err := s.Put(ctx, strings.NewReader(""), 0)
		require.ErrorIs(t, err, ErrEmptyObject)
	})

	t.Run("unknown size and empty body", func(t *testing.T) {
		t.Parallel()

		_, err := s.Put(ctx, io.NopCloser(strings.NewReader("")), -1)
		require.ErrorIs(t, err, ErrEmptyObject)
	})

	t.Run("unknown size and large body", func(t *testing.T) {
		t.Parallel()

		_, err := s.Put(ctx, io.NopCloser(strings.NewReader("0123456789")), -1)
		require.ErrorIs(t, err, ErrObjectTooLarge)
	})

	t.Run("read failure", func(t *testing.T) {
		t.Parallel()

		_, err := s.Put(ctx, iotest.ErrReader(errors.New("boom")), -1)
		require.ErrorIs(t, err, ErrUploadFailed)
	})
}

func TestSniff(t *testing.T) {
	t.Parallel()

	t.Run("seekable reader", func(t *testing.T) {
		t.Parallel()

		r := bytes.NewReader([]byte("%PDF-1.7 seed"))
		ct, body, size, err := sniff(r)
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", ct)
		assert.EqualValues(t, 13, size)

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.7 seed", string(data))
	})

	t.Run("stream is buffered", func(t *testing.T) {
		t.Parallel()

		ct, body, size, err := sniff(io.NopCloser(bytes.NewReader([]byte{0x00, 0x01, 0xfe, 0xff})))
		require.NoError(t, err)
		assert.Equal(t, MIMEOctetStream, ct)
		assert.EqualValues(t, 4, size)

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0x01, 0xfe, 0xff}, data)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		ct, _, size, err := sniff(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, MIMEOctetStream, ct)
		assert.Zero(t, size)
	})
}

func TestExtFromMIME(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".txt", ExtFromMIME("text/plain; charset=utf-8"))
	assert.Equal(t, ".png", ExtFromMIME("IMAGE/PNG"))
	assert.Equal(t, ".bin", ExtFromMIME(MIMEOctetStream))
	assert.Equal(t, ".bin", ExtFromMIME(""))
}

func TestSanitizePathSegment(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"jobs":      "jobs",
		" /jobs/ ":  "jobs",
		"..":        "",
		"a..b":      "ab",
		"seed file": "seed_file",
		"x?y#z":     "x_y_z",
		"v1.2-rc_3": "v1.2-rc_3",
		`\windows\`: "windows",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizePathSegment(in), in)
	}
}

func TestWrapS3Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no such key", &smithy.GenericAPIError{Code: "NoSuchKey"}, ErrNotFound},
		{"not found", &smithy.GenericAPIError{Code: "NotFound"}, ErrNotFound},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, ErrAccessDenied},
		{"other api error", &smithy.GenericAPIError{Code: "SlowDown"}, ErrUploadFailed},
		{"plain error", errors.New("connection reset"), ErrUploadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := wrapS3Error(tt.err, ErrUploadFailed)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	require.NoError(t, Healthcheck(pingerFunc(func(context.Context) error { return nil }))(ctx))
	require.ErrorIs(t, Healthcheck(nil)(ctx), ErrHealthcheckFailed)

	boom := errors.New("boom")
	err := Healthcheck(pingerFunc(func(context.Context) error { return boom }))(ctx)
	require.ErrorIs(t, err, ErrHealthcheckFailed)
	require.ErrorIs(t, err, boom)
}
