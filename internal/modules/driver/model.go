// README: Driver record and availability state.
package driver

import (
	"safar/internal/types"
)

// Driver is the slice of the user entity the matching engine cares about:
// identity, last known position, and whether the driver can take a ride.
// Location is nil until the first location update arrives.
type Driver struct {
	ID        types.ID
	Name      string
	Location  *types.Point
	Available bool
}

// Eligible reports whether the driver can receive an offer: available and
// with a known position.
func (d Driver) Eligible() bool {
	return d.Available && d.Location != nil
}
