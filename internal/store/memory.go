package store

import (
	"context"
	"sync"

	"github.com/wolfman30/medic-pro/internal/clinic"
)

// MemoryStore keeps encoded documents in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, key string) (*clinic.Record, error) {
	s.mu.RLock()
	data, ok := s.docs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return Decode(data)
}

func (s *MemoryStore) Save(_ context.Context, key string, rec *clinic.Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[key] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.docs, key)
	s.mu.Unlock()
	return nil
}

// Raw returns the stored bytes for key.
func (s *MemoryStore) Raw(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[key]
	return append([]byte(nil), data...), ok
}

// Put stores raw bytes under key without validation.
func (s *MemoryStore) Put(key string, data []byte) {
	s.mu.Lock()
	s.docs[key] = append([]byte(nil), data...)
	s.mu.Unlock()
}
