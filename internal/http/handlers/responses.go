// README: Wire shapes returned by the API.
package handlers

import (
	"time"

	"safar/internal/modules/ride"
	"safar/internal/types"
)

type pointResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type rideResponse struct {
	ID           types.ID       `json:"id"`
	RiderID      types.ID       `json:"rider_id"`
	DriverID     *types.ID      `json:"driver_id,omitempty"`
	Status       ride.Status    `json:"status"`
	PickupLabel  string         `json:"pickup_label"`
	DropoffLabel string         `json:"dropoff_label"`
	Pickup       *pointResponse `json:"pickup,omitempty"`
	Dropoff      *pointResponse `json:"dropoff,omitempty"`
	DistanceKm   *float64       `json:"distance_km,omitempty"`
	ETAMinutes   *int           `json:"eta_minutes,omitempty"`
	Price        *float64       `json:"price,omitempty"`
	ShareToken   string         `json:"share_token,omitempty"`
	CancelReason *string        `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	AssignedAt   *time.Time     `json:"assigned_at,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

type eventResponse struct {
	Kind      string    `json:"event"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// sharedRideResponse is the public tracking payload. It carries no share
// token and no rider identity; the token in the URL is the capability.
type sharedRideResponse struct {
	Status       ride.Status    `json:"status"`
	DriverName   string         `json:"driver_name,omitempty"`
	PickupLabel  string         `json:"pickup_label"`
	DropoffLabel string         `json:"dropoff_label"`
	Pickup       *pointResponse `json:"pickup,omitempty"`
	Dropoff      *pointResponse `json:"dropoff,omitempty"`
	Price        *float64       `json:"price,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

func toPoint(p *types.Point) *pointResponse {
	if p == nil {
		return nil
	}
	return &pointResponse{Lat: p.Lat, Lng: p.Lng}
}

func toRideResponse(r *ride.Ride) rideResponse {
	return rideResponse{
		ID:           r.ID,
		RiderID:      r.RiderID,
		DriverID:     r.DriverID,
		Status:       r.Status,
		PickupLabel:  r.PickupLabel,
		DropoffLabel: r.DropoffLabel,
		Pickup:       toPoint(r.Pickup),
		Dropoff:      toPoint(r.Dropoff),
		DistanceKm:   r.DistanceKm,
		ETAMinutes:   r.ETAMinutes,
		Price:        r.Price,
		ShareToken:   r.ShareToken,
		CancelReason: r.CancelReason,
		CreatedAt:    r.CreatedAt,
		AssignedAt:   r.AssignedAt,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
	}
}

func toEventResponses(events []ride.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{Kind: e.Kind, Note: e.Note, CreatedAt: e.CreatedAt})
	}
	return out
}

func toRideResponses(rides []ride.Ride) []rideResponse {
	out := make([]rideResponse, 0, len(rides))
	for i := range rides {
		out = append(out, toRideResponse(&rides[i]))
	}
	return out
}
