// README: Ride aggregate, status machine, and audit event definitions.
package ride

import (
	"time"

	"safar/internal/types"
)

type Status string

const (
	StatusNone           Status = "none"
	StatusMatching       Status = "matching"
	StatusDriverAssigned Status = "driver_assigned"
	StatusArrived        Status = "arrived"
	StatusOngoing        Status = "ongoing"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active statuses are everything before a terminal state; a rider may hold at
// most one ride in any of them.
var ActiveStatuses = []Status{StatusMatching, StatusDriverAssigned, StatusArrived, StatusOngoing}

// AllowedTransitions represents the ride state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusMatching:       {StatusDriverAssigned, StatusCancelled},
	StatusDriverAssigned: {StatusArrived, StatusCancelled},
	StatusArrived:        {StatusOngoing, StatusCancelled},
	StatusOngoing:        {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Creation guards.
const (
	// rateLimitWindow bounds how far back recent requests count.
	rateLimitWindow = 10 * time.Minute
	// maxRequestsPerWindow is the request ceiling inside the window.
	maxRequestsPerWindow = 3
)

type Ride struct {
	ID           types.ID
	RiderID      types.ID
	DriverID     *types.ID
	PickupLabel  string
	DropoffLabel string
	// Pickup is required at creation (both coordinates or neither); Dropoff
	// may be resolved later from the label.
	Pickup  *types.Point
	Dropoff *types.Point

	DistanceKm *float64
	ETAMinutes *int
	Price      *float64

	Status Status
	// ShareToken grants unauthenticated, read-only status lookup. Generated
	// once at creation, immutable.
	ShareToken string

	CreatedAt    time.Time
	AssignedAt   *time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CancelReason *string
}

// Event kinds written to the append-only audit log.
const (
	EventRequest        = "request"
	EventMatch          = "match"
	EventDriverAssigned = "driver_assigned"
	EventStateChange    = "state_change"
	EventCancel         = "cancel"
)

// Event is one append-only audit record. Never mutated or read back by the
// engine; surfaced on history and share payloads only.
type Event struct {
	ID        int64
	RideID    types.ID
	Kind      string
	Note      string
	CreatedAt time.Time
}

// Offer is the ephemeral proposal binding a ride to one candidate driver. It
// is never persisted in the ride store; the expiring offer store holds the
// only copy and its key existence is the pending signal.
type Offer struct {
	RideID    types.ID  `json:"ride_id"`
	DriverID  types.ID  `json:"driver_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
