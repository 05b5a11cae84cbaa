package contentstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/shackstack/shackstack/internal/cidutil"
	"github.com/shackstack/shackstack/internal/common"
)

// MemoryStore keeps content in process memory. It is meant for tests and
// single-process development setups.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	pinned  map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		pinned:  make(map[string]struct{}),
	}
}

func (s *MemoryStore) Put(ctx context.Context, value any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := encode(value)
	if err != nil {
		return "", err
	}
	id, err := cidutil.Sum(b)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.objects[id] = b
	s.mu.Unlock()

	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, cid string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	b, ok := s.objects[cid]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("content %s: %w", cid, common.ErrNotFound)
	}
	return decode(b)
}

func (s *MemoryStore) Pin(ctx context.Context, cid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[cid]; !ok {
		return fmt.Errorf("content %s: %w", cid, common.ErrNotFound)
	}
	s.pinned[cid] = struct{}{}
	return nil
}

// Pinned reports whether cid has been pinned.
func (s *MemoryStore) Pinned(cid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pinned[cid]
	return ok
}
