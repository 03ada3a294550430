package storage

import (
	"bytes"
	"io"
	"net/http"
	"strings"
)

const (
	MIMEOctetStream = "application/octet-stream"

	// http.DetectContentType looks at no more than this many bytes.
	sniffLen = 512
)

var mimeExtensions = map[string]string{
	"text/plain":         ".txt",
	"text/html":          ".html",
	"text/xml":           ".xml",
	"application/xml":    ".xml",
	"application/json":   ".json",
	"application/pdf":    ".pdf",
	"application/zip":    ".zip",
	"application/x-gzip": ".gz",
	"application/gzip":   ".gz",
	"application/x-tar":  ".tar",
	"image/png":          ".png",
	"image/jpeg":         ".jpg",
	"image/gif":          ".gif",
	"image/webp":         ".webp",
	"audio/wave":         ".wav",
	"video/mp4":          ".mp4",
	"font/ttf":           ".ttf",
}

// ExtFromMIME returns the extension for a MIME type, or ".bin" when unknown.
func ExtFromMIME(mimeType string) string {
	if ext, ok := mimeExtensions[normalizeMIME(mimeType)]; ok {
		return ext
	}
	return ".bin"
}

// sniff detects the content type of r and returns a reader positioned at
// the start of the same content. The AWS SDK needs an io.ReadSeeker to hash
// the payload, so non-seekable readers are buffered.
func sniff(r io.Reader) (string, io.ReadSeeker, int64, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", nil, 0, err
		}
		rs = bytes.NewReader(data)
	}

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(rs, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, 0, err
	}
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return "", nil, 0, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", nil, 0, err
	}
	if n == 0 {
		return MIMEOctetStream, rs, size, nil
	}
	return normalizeMIME(http.DetectContentType(buf[:n])), rs, size, nil
}

// normalizeMIME drops parameters such as charset and lowercases the type.
func normalizeMIME(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.TrimSpace(strings.ToLower(mimeType))
}
