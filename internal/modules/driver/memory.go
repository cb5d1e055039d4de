// README: In-process driver store used when Postgres is not configured.
package driver

import (
	"context"
	"sync"

	"safar/internal/types"
)

type MemoryStore struct {
	mu      sync.RWMutex
	drivers map[types.ID]Driver
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drivers: make(map[types.ID]Driver)}
}

// Upsert seeds or replaces a driver record.
func (s *MemoryStore) Upsert(d Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers[d.ID] = d
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (*Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := d
	return &copy, nil
}

func (s *MemoryStore) Eligible(_ context.Context, exclude map[types.ID]bool) ([]Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Driver
	for id, d := range s.drivers {
		if exclude[id] || !d.Eligible() {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *MemoryStore) SetLocation(_ context.Context, id types.ID, p types.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok {
		return ErrNotFound
	}
	d.Location = &p
	s.drivers[id] = d
	return nil
}

func (s *MemoryStore) SetAvailability(_ context.Context, id types.ID, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok {
		return ErrNotFound
	}
	d.Available = available
	s.drivers[id] = d
	return nil
}
