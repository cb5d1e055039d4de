// README: Common value objects shared across modules.
package types

// ID is an opaque entity identifier.
type ID string

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies inside the WGS84 coordinate ranges.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Location is either a free-text address or a resolved coordinate pair.
// Callers resolve it to a Point once at the boundary before any matching or
// estimation logic runs.
type Location struct {
	Address string
	Point   *Point
}

// LocationFromAddress builds an address-form Location.
func LocationFromAddress(addr string) Location {
	return Location{Address: addr}
}

// LocationFromPoint builds a coordinate-form Location.
func LocationFromPoint(p Point) Location {
	return Location{Point: &p}
}

// Resolved reports whether the location already carries coordinates.
func (l Location) Resolved() bool {
	return l.Point != nil
}
