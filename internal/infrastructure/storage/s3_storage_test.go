package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewS3ImageStorage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{"nil config", nil, "configuration is required"},
		{"missing bucket", &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, "bucket is required"},
		{"missing access key", &config.StorageConfig{Bucket: "b", SecretKey: "s"}, "access key is required"},
		{"missing secret key", &config.StorageConfig{Bucket: "b", AccessKey: "k"}, "secret key is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3ImageStorage(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestS3ImageStorage_PublicURL(t *testing.T) {
	t.Run("defaults to endpoint and bucket", func(t *testing.T) {
		s, err := NewS3ImageStorage(&config.StorageConfig{
			Endpoint:  "minio:9000",
			Bucket:    "images",
			AccessKey: "k",
			SecretKey: "s",
		})
		require.NoError(t, err)

		assert.Equal(t, "http://minio:9000/images/products/1/a.png", s.PublicURL("products/1/a.png"))
		assert.Equal(t, "images", s.Bucket())
	})

	t.Run("uses the configured public base", func(t *testing.T) {
		s, err := NewS3ImageStorage(&config.StorageConfig{
			Endpoint:      "https://s3.eu-west-1.amazonaws.com",
			Bucket:        "images",
			AccessKey:     "k",
			SecretKey:     "s",
			PublicBaseURL: "https://cdn.example.com/",
		})
		require.NoError(t, err)

		assert.Equal(t, "https://cdn.example.com/products/1/a.png", s.PublicURL("/products/1/a.png"))
	})
}

// fakeS3 records requests and answers like a minimal path-style S3 endpoint
type fakeS3 struct {
	mu           sync.Mutex
	requests     []string
	bodies       map[string][]byte
	contentTypes map[string]string
	bucketExists bool
}

func newFakeS3(bucketExists bool) *fakeS3 {
	return &fakeS3{
		bodies:       make(map[string][]byte),
		contentTypes: make(map[string]string),
		bucketExists: bucketExists,
	}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	switch {
	case r.Method == http.MethodHead && r.URL.Path == "/images":
		if !f.bucketExists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	case r.Method == http.MethodPut && r.URL.Path == "/images":
		f.bucketExists = true
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.bodies[r.URL.Path] = body
		f.contentTypes[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
	case r.Method == http.MethodDelete:
		delete(f.bodies, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func newTestS3Storage(t *testing.T, fake *fakeS3) *S3ImageStorage {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	s, err := NewS3ImageStorage(&config.StorageConfig{
		Endpoint:     server.URL,
		Bucket:       "images",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return s
}

func TestS3ImageStorage_Upload(t *testing.T) {
	fake := newFakeS3(true)
	s := newTestS3Storage(t, fake)

	payload := []byte("fake png bytes")
	err := s.Upload(context.Background(), "products/p1/img.png", bytes.NewReader(payload), int64(len(payload)), "image/png")
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, string(fake.bodies["/images/products/p1/img.png"]), "fake png bytes")
	assert.Equal(t, "image/png", fake.contentTypes["/images/products/p1/img.png"])
}

func TestS3ImageStorage_UploadRequiresKey(t *testing.T) {
	s := newTestS3Storage(t, newFakeS3(true))

	err := s.Upload(context.Background(), "", bytes.NewReader(nil), 0, "image/png")
	assert.Error(t, err)
}

func TestS3ImageStorage_Delete(t *testing.T) {
	fake := newFakeS3(true)
	s := newTestS3Storage(t, fake)

	require.NoError(t, s.Delete(context.Background(), "products/p1/img.png"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.requests, "DELETE /images/products/p1/img.png")
}

func TestS3ImageStorage_EnsureBucket(t *testing.T) {
	t.Run("existing bucket is left alone", func(t *testing.T) {
		fake := newFakeS3(true)
		s := newTestS3Storage(t, fake)

		require.NoError(t, s.EnsureBucket(context.Background()))

		fake.mu.Lock()
		defer fake.mu.Unlock()
		assert.Equal(t, []string{"HEAD /images"}, fake.requests)
	})

	t.Run("missing bucket is created", func(t *testing.T) {
		fake := newFakeS3(false)
		s := newTestS3Storage(t, fake)

		require.NoError(t, s.EnsureBucket(context.Background()))

		fake.mu.Lock()
		defer fake.mu.Unlock()
		assert.Equal(t, []string{"HEAD /images", "PUT /images"}, fake.requests)
		assert.True(t, fake.bucketExists)
	})
}
