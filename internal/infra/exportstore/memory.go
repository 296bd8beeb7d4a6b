package exportstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"

	"github.com/yanqian/keto-dashboard/internal/domain/dashboard"
)

// ErrObjectNotFound is returned when a key has no stored export.
var ErrObjectNotFound = dashboard.ErrExportNotFound

// MemoryStorage keeps exports in process memory. Used for local runs and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data     []byte
	mimeType string
	etag     string
}

// NewMemoryStorage constructs an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]memoryObject)}
}

// Put copies data so callers may reuse their buffer.
func (s *MemoryStorage) Put(_ context.Context, key string, data []byte, mimeType string) (dashboard.StoredObject, error) {
	sum := sha256.Sum256(data)
	obj := memoryObject{
		data:     bytes.Clone(data),
		mimeType: mimeType,
		etag:     hex.EncodeToString(sum[:8]),
	}
	s.mu.Lock()
	s.objects[key] = obj
	s.mu.Unlock()
	return dashboard.StoredObject{
		Key:      key,
		Size:     int64(len(data)),
		MimeType: mimeType,
		ETag:     obj.etag,
	}, nil
}

func (s *MemoryStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Len reports how many exports are held.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

var _ dashboard.ExportStorage = (*MemoryStorage)(nil)
