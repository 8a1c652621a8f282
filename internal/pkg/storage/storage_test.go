package storage

import (
	"context"
	"strings"
	"testing"
)

func TestObjectURL(t *testing.T) {
	tests := []struct {
		name      string
		publicURL string
		endpoint  string
		want      string
	}{
		{name: "public url wins", publicURL: "https://cdn.example.com", endpoint: "http://minio:9000", want: "https://cdn.example.com/creatives/1.jpg"},
		{name: "path style endpoint", endpoint: "http://minio:9000", want: "http://minio:9000/bucket/creatives/1.jpg"},
		{name: "aws default", want: "https://bucket.s3.amazonaws.com/creatives/1.jpg"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := objectURL(tc.publicURL, tc.endpoint, "bucket", "creatives/1.jpg"); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestMemoryStorageRoundTrip(t *testing.T) {
	s := NewMemoryStorage("http://localhost:8080/creatives")
	ctx := context.Background()

	if err := s.Put(ctx, "a.png", strings.NewReader("png"), "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, ct, ok := s.Object("a.png")
	if !ok || string(data) != "png" || ct != "image/png" {
		t.Fatalf("unexpected object %q %q %v", data, ct, ok)
	}
	if err := s.Delete(ctx, "a.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, ok := s.Object("a.png"); ok {
		t.Fatal("expected object to be gone")
	}
}

func TestConfigConfigured(t *testing.T) {
	if (Config{S3Bucket: "b"}).Configured() {
		t.Fatal("bucket without credentials should not be configured")
	}
	if !(Config{S3Bucket: "b", S3AccessKey: "k", S3SecretKey: "s"}).Configured() {
		t.Fatal("expected configured")
	}
}
