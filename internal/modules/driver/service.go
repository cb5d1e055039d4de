// README: Driver service for location updates and availability toggles.
package driver

import (
	"context"
	"errors"

	"safar/internal/types"
)

var ErrBadRequest = errors.New("bad request")

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Driver, error) {
	return s.store.Get(ctx, id)
}

// UpdateLocation records the driver's current position. The store rejects
// non-driver ids.
func (s *Service) UpdateLocation(ctx context.Context, id types.ID, p types.Point) error {
	if id == "" || !p.Valid() {
		return ErrBadRequest
	}
	return s.store.SetLocation(ctx, id, p)
}

// SetAvailability flips the availability flag. Drivers go unavailable on
// assignment and available again on completion or cancellation; those
// mutations run inside the lifecycle's side effects, this entry point is for
// the driver's own toggle.
func (s *Service) SetAvailability(ctx context.Context, id types.ID, available bool) error {
	if id == "" {
		return ErrBadRequest
	}
	return s.store.SetAvailability(ctx, id, available)
}
