package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/fpang/styleai/internal/schema"
	"github.com/fpang/styleai/internal/wardrobe"
)

// MemoryStore keeps the collection in process memory, in insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	ownerID string
	items   []wardrobe.Item
}

// Compile-time interface check.
var _ WardrobeStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(ownerID string) *MemoryStore {
	return &MemoryStore{ownerID: ownerID}
}

func (s *MemoryStore) Add(_ context.Context, fields schema.NewItem) (wardrobe.Item, error) {
	item := itemFromFields(uuid.NewString(), s.ownerID, fields)
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
	return item, nil
}

func (s *MemoryStore) Update(_ context.Context, item wardrobe.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(item.ID)
	if i < 0 {
		return ErrNotFound
	}
	item.OwnerID = s.items[i].OwnerID
	s.items[i] = item
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]wardrobe.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]wardrobe.Item, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*wardrobe.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return nil, nil
	}
	item := s.items[i]
	return &item, nil
}

func (s *MemoryStore) indexLocked(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
