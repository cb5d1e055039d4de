// README: Expiring offer store; key existence is the acceptance signal.
package offer

import (
	"context"
	"time"

	"safar/internal/types"
)

// An offer binds one ride to one candidate driver for the duration of its
// TTL. The (ride, driver) key existing in the store means the offer is still
// pending; its disappearance means either expiry or acceptance.
//
// CheckAndDelete must be atomic: two concurrent acceptors racing on the same
// key must observe exactly one true. A separate exists-then-delete would let
// both win.
type Store interface {
	// Put publishes an offer with the given time-to-live.
	Put(ctx context.Context, rideID, driverID types.ID, ttl time.Duration) error
	// Exists reports whether the offer is still pending.
	Exists(ctx context.Context, rideID, driverID types.ID) (bool, error)
	// CheckAndDelete atomically removes the offer if present and reports
	// whether it was there. This is the acceptance primitive.
	CheckAndDelete(ctx context.Context, rideID, driverID types.ID) (bool, error)
	// Forget removes the offer unconditionally (expiry, supersession).
	Forget(ctx context.Context, rideID, driverID types.ID) error
}
