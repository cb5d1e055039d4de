// README: In-process ride store used when Postgres is not configured.
package ride

import (
	"context"
	"sync"
	"time"

	"safar/internal/types"
)

type MemoryStore struct {
	mu     sync.Mutex
	rides  map[types.ID]*Ride
	events []Event
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rides: make(map[types.ID]*Ride)}
}

func (s *MemoryStore) Create(_ context.Context, r *Ride, ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.rides[r.ID] = &cp
	s.append(*ev)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) GetByShareToken(_ context.Context, token string) (*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rides {
		if r.ShareToken == token {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ActiveByRider(_ context.Context, riderID types.ID) (*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rides {
		if r.RiderID == riderID && !r.Status.Terminal() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CountRecentByRider(_ context.Context, riderID types.ID, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.rides {
		if r.RiderID == riderID && !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListByRider(_ context.Context, riderID types.ID) ([]Ride, error) {
	return s.list(func(r *Ride) bool { return r.RiderID == riderID })
}

func (s *MemoryStore) ListByDriver(_ context.Context, driverID types.ID) ([]Ride, error) {
	return s.list(func(r *Ride) bool { return r.DriverID != nil && *r.DriverID == driverID })
}

func (s *MemoryStore) list(match func(*Ride) bool) ([]Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Ride
	for _, r := range s.rides {
		if match(r) {
			out = append(out, *r)
		}
	}
	return out, nil
}

// Apply mirrors the conditional UPDATE: the status check and the write happen
// under one lock, so concurrent transitions see exactly one winner.
func (s *MemoryStore) Apply(_ context.Context, t Transition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[t.RideID]
	if !ok || r.Status != t.From {
		return false, nil
	}
	now := time.Now().UTC()
	r.Status = t.To
	if t.DriverID != nil {
		r.DriverID = t.DriverID
	}
	if t.CancelReason != nil {
		r.CancelReason = t.CancelReason
	}
	switch t.To {
	case StatusDriverAssigned:
		r.AssignedAt = &now
	case StatusOngoing:
		r.StartedAt = &now
	case StatusCompleted:
		r.CompletedAt = &now
	}
	s.append(t.Event)
	return true, nil
}

func (s *MemoryStore) AppendEvent(_ context.Context, ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.append(*ev)
	return nil
}

func (s *MemoryStore) ListEvents(_ context.Context, rideID types.ID) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.RideID == rideID {
			out = append(out, e)
		}
	}
	return out, nil
}

// append assigns the next event id; callers hold the lock.
func (s *MemoryStore) append(ev Event) {
	s.nextID++
	ev.ID = s.nextID
	s.events = append(s.events, ev)
}
