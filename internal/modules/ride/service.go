// README: Ride lifecycle service; transition guards and side effects live here.
package ride

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"safar/internal/modules/driver"
	"safar/internal/observability"
	"safar/internal/types"
)

var (
	ErrBadRequest     = errors.New("bad request")
	ErrNotFound       = errors.New("ride not found")
	ErrForbidden      = errors.New("ride belongs to another user")
	ErrInvalidState   = errors.New("invalid state transition")
	ErrConflict       = errors.New("ride state conflict")
	ErrActiveRide     = errors.New("rider already has an active ride")
	ErrRateLimited    = errors.New("too many ride requests in the last 10 minutes")
	ErrReasonRequired = errors.New("cancellation reason is required after driver assignment")
	ErrNoOffer        = errors.New("no active offer found or offer expired")
)

type Service struct {
	store   Store
	drivers driver.Store
	logger  *slog.Logger
}

func NewService(store Store, drivers driver.Store, logger *slog.Logger) *Service {
	return &Service{store: store, drivers: drivers, logger: logger}
}

type CreateCommand struct {
	RiderID      types.ID
	PickupLabel  string
	DropoffLabel string
	Pickup       *types.Point
	Dropoff      *types.Point
	DistanceKm   *float64
	ETAMinutes   *int
	Price        *float64
}

type CancelCommand struct {
	RideID  types.ID
	RiderID types.ID
	Reason  string
}

type ProgressCommand struct {
	RideID   types.ID
	DriverID types.ID
}

type AssignCommand struct {
	RideID   types.ID
	DriverID types.ID
	Note     string
}

// Create builds a ride in MATCHING after checking the creation guards: the
// rider holds no active ride, has issued fewer than three requests in the
// trailing ten minutes, and supplied pickup coordinates.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Ride, error) {
	if cmd.RiderID == "" || cmd.PickupLabel == "" || cmd.DropoffLabel == "" {
		return nil, ErrBadRequest
	}
	if cmd.Pickup == nil || !cmd.Pickup.Valid() {
		return nil, ErrBadRequest
	}

	if _, err := s.store.ActiveByRider(ctx, cmd.RiderID); err == nil {
		return nil, ErrActiveRide
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	recent, err := s.store.CountRecentByRider(ctx, cmd.RiderID, time.Now().Add(-rateLimitWindow))
	if err != nil {
		return nil, err
	}
	if recent >= maxRequestsPerWindow {
		return nil, ErrRateLimited
	}

	now := time.Now().UTC()
	pickup := *cmd.Pickup
	r := &Ride{
		ID:           types.ID(uuid.NewString()),
		RiderID:      cmd.RiderID,
		PickupLabel:  cmd.PickupLabel,
		DropoffLabel: cmd.DropoffLabel,
		Pickup:       &pickup,
		Dropoff:      cmd.Dropoff,
		DistanceKm:   cmd.DistanceKm,
		ETAMinutes:   cmd.ETAMinutes,
		Price:        cmd.Price,
		Status:       StatusMatching,
		ShareToken:   newShareToken(),
		CreatedAt:    now,
	}
	ev := &Event{
		RideID:    r.ID,
		Kind:      EventRequest,
		Note:      "Ride requested by rider " + string(cmd.RiderID),
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, r, ev); err != nil {
		return nil, err
	}
	return r, nil
}

// Cancel moves any non-terminal ride to CANCELLED. Cancellation is free from
// MATCHING; after assignment a reason is required and the driver is released.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if cmd.RiderID != "" && r.RiderID != cmd.RiderID {
		return nil, ErrForbidden
	}
	if !CanTransition(r.Status, StatusCancelled) {
		return nil, ErrInvalidState
	}

	note := cmd.Reason
	var reason *string
	if r.Status == StatusMatching {
		if note == "" {
			note = "Cancelled by rider before driver assignment"
		}
	} else {
		if cmd.Reason == "" {
			return nil, ErrReasonRequired
		}
		reason = &cmd.Reason
	}

	ok, err := s.store.Apply(ctx, Transition{
		RideID:       r.ID,
		From:         r.Status,
		To:           StatusCancelled,
		CancelReason: reason,
		Event:        Event{RideID: r.ID, Kind: EventCancel, Note: note, CreatedAt: time.Now().UTC()},
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	if r.DriverID != nil {
		s.releaseDriver(ctx, *r.DriverID)
	}
	return s.store.Get(ctx, r.ID)
}

// MarkArrived transitions DRIVER_ASSIGNED → ARRIVED.
func (s *Service) MarkArrived(ctx context.Context, cmd ProgressCommand) (*Ride, error) {
	return s.progress(ctx, cmd, StatusDriverAssigned, StatusArrived, "Ride status changed to ARRIVED")
}

// MarkOngoing transitions ARRIVED → ONGOING and stamps the trip start.
func (s *Service) MarkOngoing(ctx context.Context, cmd ProgressCommand) (*Ride, error) {
	return s.progress(ctx, cmd, StatusArrived, StatusOngoing, "Ride status changed to ONGOING")
}

// MarkCompleted transitions ONGOING → COMPLETED, stamps completion, and makes
// the driver available again.
func (s *Service) MarkCompleted(ctx context.Context, cmd ProgressCommand) (*Ride, error) {
	r, err := s.progress(ctx, cmd, StatusOngoing, StatusCompleted, "Ride status changed to COMPLETED")
	if err != nil {
		return nil, err
	}
	if r.DriverID != nil {
		s.releaseDriver(ctx, *r.DriverID)
	}
	return r, nil
}

func (s *Service) progress(ctx context.Context, cmd ProgressCommand, from, to Status, note string) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if cmd.DriverID != "" && (r.DriverID == nil || *r.DriverID != cmd.DriverID) {
		return nil, ErrForbidden
	}
	if r.Status != from {
		return nil, ErrInvalidState
	}
	ok, err := s.store.Apply(ctx, Transition{
		RideID: r.ID,
		From:   from,
		To:     to,
		Event:  Event{RideID: r.ID, Kind: EventStateChange, Note: note, CreatedAt: time.Now().UTC()},
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	return s.store.Get(ctx, r.ID)
}

// Assign performs MATCHING → DRIVER_ASSIGNED, binding the driver and marking
// them unavailable. Only the negotiator and the offer-accept path call this.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) error {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return err
	}
	if r.Status != StatusMatching {
		return ErrInvalidState
	}

	note := cmd.Note
	if note == "" {
		note = "Driver " + string(cmd.DriverID) + " assigned"
	}
	driverID := cmd.DriverID
	ok, err := s.store.Apply(ctx, Transition{
		RideID:   r.ID,
		From:     StatusMatching,
		To:       StatusDriverAssigned,
		DriverID: &driverID,
		Event:    Event{RideID: r.ID, Kind: EventDriverAssigned, Note: note, CreatedAt: time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	if err := s.drivers.SetAvailability(ctx, cmd.DriverID, false); err != nil {
		s.logger.Warn("failed to mark driver unavailable",
			"ride_id", cmd.RideID, "driver_id", cmd.DriverID, "error", err)
	}
	observability.RidesAssigned.Inc()
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Ride, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetByShareToken(ctx context.Context, token string) (*Ride, error) {
	return s.store.GetByShareToken(ctx, token)
}

func (s *Service) ActiveByRider(ctx context.Context, riderID types.ID) (*Ride, error) {
	return s.store.ActiveByRider(ctx, riderID)
}

func (s *Service) HistoryByRider(ctx context.Context, riderID types.ID) ([]Ride, error) {
	return s.store.ListByRider(ctx, riderID)
}

func (s *Service) HistoryByDriver(ctx context.Context, driverID types.ID) ([]Ride, error) {
	return s.store.ListByDriver(ctx, driverID)
}

func (s *Service) Events(ctx context.Context, rideID types.ID) ([]Event, error) {
	return s.store.ListEvents(ctx, rideID)
}

// RecordEvent appends an audit record outside a transition (offer published,
// offer expired). Failures are logged, never surfaced.
func (s *Service) RecordEvent(ctx context.Context, rideID types.ID, kind, note string) {
	ev := &Event{RideID: rideID, Kind: kind, Note: note, CreatedAt: time.Now().UTC()}
	if err := s.store.AppendEvent(ctx, ev); err != nil {
		s.logger.Warn("failed to record ride event", "ride_id", rideID, "event", kind, "error", err)
	}
}

func (s *Service) releaseDriver(ctx context.Context, driverID types.ID) {
	if err := s.drivers.SetAvailability(ctx, driverID, true); err != nil {
		s.logger.Warn("failed to release driver", "driver_id", driverID, "error", err)
	}
}

const shareTokenLen = 32

// newShareToken returns a 32-char alphanumeric token.
func newShareToken() string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, shareTokenLen)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b)
}
