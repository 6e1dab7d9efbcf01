package media

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps media in process. URLs use the memory:// scheme.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, conversationID, name string, content []byte, _ string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	if err := validate(conversationID, name); err != nil {
		return "", err
	}
	key := objectKey(conversationID, name)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), content...)
	return "memory://" + key, nil
}

func (s *MemoryStore) Get(_ context.Context, conversationID, name string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if err := validate(conversationID, name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[objectKey(conversationID, name)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}
