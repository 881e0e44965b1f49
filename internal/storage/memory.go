package storage

import (
	"context"
	"sync"

	"planboard/internal/domain"
)

// MemoryLayoutStore keeps documents as encoded JSON in a map. It applies the
// same top-level merge as the database stores.
type MemoryLayoutStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryLayoutStore() *MemoryLayoutStore {
	return &MemoryLayoutStore{docs: make(map[string][]byte)}
}

func (s *MemoryLayoutStore) SaveLayout(ctx context.Context, userID string, l *domain.Layout) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	merged, err := mergeDocument(s.docs[userID], l)
	if err != nil {
		return err
	}
	s.docs[userID] = merged
	return nil
}

func (s *MemoryLayoutStore) LoadLayout(ctx context.Context, userID string) (*domain.Layout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	raw, ok := s.docs[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeDocument(raw)
}

// PutRaw stores a raw JSON document, replacing whatever was there. Used to
// seed documents that carry fields owned by other services.
func (s *MemoryLayoutStore) PutRaw(userID string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[userID] = append([]byte(nil), raw...)
}

// Raw returns the stored JSON document for userID.
func (s *MemoryLayoutStore) Raw(userID string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.docs[userID]
	return append([]byte(nil), raw...), ok
}

func (s *MemoryLayoutStore) Close(context.Context) error { return nil }
