package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// StoredObject is an object held by MemoryImageStorage
type StoredObject struct {
	Data        []byte
	ContentType string
}

// MemoryImageStorage keeps objects in memory. It backs local development
// when object storage is disabled, and tests.
type MemoryImageStorage struct {
	mu      sync.RWMutex
	objects map[string]StoredObject
	baseURL string
}

// NewMemoryImageStorage creates an empty store whose public URLs start with baseURL
func NewMemoryImageStorage(baseURL string) *MemoryImageStorage {
	if baseURL == "" {
		baseURL = "http://localhost:8080/images"
	}
	return &MemoryImageStorage{
		objects: make(map[string]StoredObject),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload stores the object in memory
func (m *MemoryImageStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = StoredObject{Data: data, ContentType: contentType}
	return nil
}

// Delete removes the object
func (m *MemoryImageStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// PublicURL returns the URL under which key is served
func (m *MemoryImageStorage) PublicURL(key string) string {
	return m.baseURL + "/" + strings.TrimLeft(key, "/")
}

// Get returns a stored object
func (m *MemoryImageStorage) Get(key string) (StoredObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Len returns the number of stored objects
func (m *MemoryImageStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
