// README: Ride store backed by PostgreSQL with conditional status transitions.
package ride

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"safar/internal/types"
)

// Transition is one atomic lifecycle step: the conditional status flip, the
// timestamp it implies, and the audit event, committed as a unit.
type Transition struct {
	RideID types.ID
	From   Status
	To     Status
	// DriverID is set on assignment only.
	DriverID     *types.ID
	CancelReason *string
	Event        Event
}

// Store is the transactional record capability for rides and their events.
type Store interface {
	// Create persists the ride and its request event as one unit.
	Create(ctx context.Context, r *Ride, ev *Event) error
	Get(ctx context.Context, id types.ID) (*Ride, error)
	GetByShareToken(ctx context.Context, token string) (*Ride, error)
	// ActiveByRider returns the rider's ride in a non-terminal status, or
	// ErrNotFound.
	ActiveByRider(ctx context.Context, riderID types.ID) (*Ride, error)
	CountRecentByRider(ctx context.Context, riderID types.ID, since time.Time) (int, error)
	ListByRider(ctx context.Context, riderID types.ID) ([]Ride, error)
	ListByDriver(ctx context.Context, driverID types.ID) ([]Ride, error)
	// Apply performs the conditional update ("set status=To only if status
	// is still From") and appends the event; reports false, without writing
	// anything, when another path already moved the ride on.
	Apply(ctx context.Context, t Transition) (bool, error)
	// AppendEvent records an audit event that is not tied to a status
	// change (offers published, offers expired).
	AppendEvent(ctx context.Context, ev *Event) error
	ListEvents(ctx context.Context, rideID types.ID) ([]Event, error)
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, r *Ride, ev *Event) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO rides (
				id, rider_id, driver_id, pickup_label, dropoff_label,
				pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
				distance_km, eta_minutes, price,
				status, share_token, created_at
			) VALUES (
				$1, $2, $3, $4, $5,
				$6, $7, $8, $9,
				$10, $11, $12,
				$13, $14, $15
			)`,
			string(r.ID), string(r.RiderID), idPtr(r.DriverID),
			r.PickupLabel, r.DropoffLabel,
			latPtr(r.Pickup), lngPtr(r.Pickup), latPtr(r.Dropoff), lngPtr(r.Dropoff),
			r.DistanceKm, r.ETAMinutes, r.Price,
			string(r.Status), r.ShareToken, r.CreatedAt,
		)
		if err != nil {
			return err
		}
		return appendEvent(ctx, tx, ev)
	})
}

const rideColumns = `
	id, rider_id, driver_id, pickup_label, dropoff_label,
	pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
	distance_km, eta_minutes, price,
	status, share_token, created_at,
	assigned_at, started_at, completed_at, cancel_reason`

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Ride, error) {
	return s.getWhere(ctx, "id = $1", string(id))
}

func (s *PGStore) GetByShareToken(ctx context.Context, token string) (*Ride, error) {
	return s.getWhere(ctx, "share_token = $1", token)
}

func (s *PGStore) ActiveByRider(ctx context.Context, riderID types.ID) (*Ride, error) {
	return s.getWhere(ctx,
		"rider_id = $1 AND status IN ('matching','driver_assigned','arrived','ongoing')",
		string(riderID))
}

func (s *PGStore) getWhere(ctx context.Context, where string, arg any) (*Ride, error) {
	row := s.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE `+where, arg)
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PGStore) CountRecentByRider(ctx context.Context, riderID types.ID, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM rides
		WHERE rider_id = $1 AND created_at >= $2`,
		string(riderID), since,
	).Scan(&n)
	return n, err
}

func (s *PGStore) ListByRider(ctx context.Context, riderID types.ID) ([]Ride, error) {
	return s.listWhere(ctx, "rider_id = $1", string(riderID))
}

func (s *PGStore) ListByDriver(ctx context.Context, driverID types.ID) ([]Ride, error) {
	return s.listWhere(ctx, "driver_id = $1", string(driverID))
}

func (s *PGStore) listWhere(ctx context.Context, where string, arg any) ([]Ride, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE `+where+` ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *PGStore) Apply(ctx context.Context, t Transition) (bool, error) {
	var applied bool
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE rides
			SET status = $1,
			    driver_id = COALESCE($2, driver_id),
			    cancel_reason = COALESCE($3, cancel_reason),
			    assigned_at = CASE WHEN $1 = 'driver_assigned' THEN NOW() ELSE assigned_at END,
			    started_at = CASE WHEN $1 = 'ongoing' THEN NOW() ELSE started_at END,
			    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END
			WHERE id = $4 AND status = $5`,
			string(t.To), idPtr(t.DriverID), t.CancelReason,
			string(t.RideID), string(t.From),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return nil // lost the race; nothing to commit
		}
		applied = true
		return appendEvent(ctx, tx, &t.Event)
	})
	return applied, err
}

func (s *PGStore) AppendEvent(ctx context.Context, ev *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ride_events (ride_id, event, note, created_at)
		VALUES ($1, $2, $3, $4)`,
		string(ev.RideID), ev.Kind, ev.Note, ev.CreatedAt,
	)
	return err
}

func (s *PGStore) ListEvents(ctx context.Context, rideID types.ID) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, ride_id, event, note, created_at
		FROM ride_events
		WHERE ride_id = $1
		ORDER BY id`, string(rideID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.RideID, &e.Kind, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func appendEvent(ctx context.Context, tx pgx.Tx, ev *Event) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO ride_events (ride_id, event, note, created_at)
		VALUES ($1, $2, $3, $4)`,
		string(ev.RideID), ev.Kind, ev.Note, ev.CreatedAt,
	)
	return err
}

func scanRide(row pgx.Row) (*Ride, error) {
	var r Ride
	var driverID *string
	var pickupLat, pickupLng, dropoffLat, dropoffLng *float64
	err := row.Scan(
		&r.ID, &r.RiderID, &driverID, &r.PickupLabel, &r.DropoffLabel,
		&pickupLat, &pickupLng, &dropoffLat, &dropoffLng,
		&r.DistanceKm, &r.ETAMinutes, &r.Price,
		&r.Status, &r.ShareToken, &r.CreatedAt,
		&r.AssignedAt, &r.StartedAt, &r.CompletedAt, &r.CancelReason,
	)
	if err != nil {
		return nil, err
	}
	if driverID != nil {
		id := types.ID(*driverID)
		r.DriverID = &id
	}
	if pickupLat != nil && pickupLng != nil {
		r.Pickup = &types.Point{Lat: *pickupLat, Lng: *pickupLng}
	}
	if dropoffLat != nil && dropoffLng != nil {
		r.Dropoff = &types.Point{Lat: *dropoffLat, Lng: *dropoffLng}
	}
	return &r, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func latPtr(p *types.Point) *float64 {
	if p == nil {
		return nil
	}
	return &p.Lat
}

func lngPtr(p *types.Point) *float64 {
	if p == nil {
		return nil
	}
	return &p.Lng
}
