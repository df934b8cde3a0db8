package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StoredObject is one write seen by MemoryStore
type StoredObject struct {
	Key         string
	ContentType string
	Metadata    map[string]string
	Size        int
}

// MemoryStore is an in-memory object store that records writes
type MemoryStore struct {
	mu      sync.Mutex
	objects []StoredObject
	// PutErr, when set, fails every Put
	PutErr error
}

func (m *MemoryStore) Put(_ context.Context, key string, body []byte, contentType string, metadata map[string]string) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects = append(m.objects, StoredObject{Key: key, ContentType: contentType, Metadata: metadata, Size: len(body)})
	return nil
}

func (m *MemoryStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://objects.test/%s?expires=%d", key, int(ttl.Seconds())), nil
}

// Objects returns a copy of the recorded writes
func (m *MemoryStore) Objects() []StoredObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StoredObject(nil), m.objects...)
}
