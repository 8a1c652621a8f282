package storage

import (
	"context"
	"io"
)

// Storage stores creative objects and resolves their public URLs.
type Storage interface {
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	GetURL(key string) string
}

// Config holds S3 / MinIO settings
type Config struct {
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	// S3PublicURL overrides the URL prefix returned by GetURL (CDN or bucket website).
	S3PublicURL string
}

// Configured reports whether a bucket and credentials are present
func (c Config) Configured() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
