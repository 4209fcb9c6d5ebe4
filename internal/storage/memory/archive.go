// Package memory contains an in-memory storage provider for tests.
package memory

import (
	"context"
	"sync"
)

// Archive stores saved objects for inspection.
type Archive struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New returns a memory Archive.
func New() *Archive {
	return &Archive{objects: make(map[string][]byte)}
}

// Save records the object and returns a mem:// URI.
func (a *Archive) Save(_ context.Context, objectName string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	a.objects[objectName] = buf
	return "mem://" + objectName, nil
}

// Object returns a stored object and whether it exists.
func (a *Archive) Object(objectName string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.objects[objectName]
	return data, ok
}

// Len returns the number of stored objects.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.objects)
}
