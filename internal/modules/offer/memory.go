// README: In-process offer store used when Redis is not configured.
package offer

import (
	"context"
	"sync"
	"time"

	"safar/internal/types"
)

type MemoryStore struct {
	mu        sync.Mutex
	deadlines map[memKey]time.Time
}

type memKey struct {
	rideID   types.ID
	driverID types.ID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{deadlines: make(map[memKey]time.Time)}
}

func (s *MemoryStore) Put(_ context.Context, rideID, driverID types.ID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadlines[memKey{rideID, driverID}] = time.Now().Add(ttl)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, rideID, driverID types.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive(memKey{rideID, driverID}), nil
}

func (s *MemoryStore) CheckAndDelete(_ context.Context, rideID, driverID types.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memKey{rideID, driverID}
	if !s.alive(k) {
		return false, nil
	}
	delete(s.deadlines, k)
	return true, nil
}

func (s *MemoryStore) Forget(_ context.Context, rideID, driverID types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deadlines, memKey{rideID, driverID})
	return nil
}

// alive drops expired entries lazily; callers hold the lock.
func (s *MemoryStore) alive(k memKey) bool {
	deadline, ok := s.deadlines[k]
	if !ok {
		return false
	}
	if time.Now().After(deadline) {
		delete(s.deadlines, k)
		return false
	}
	return true
}
