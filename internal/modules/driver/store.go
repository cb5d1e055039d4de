// README: Driver store backed by PostgreSQL (users table, driver rows).
package driver

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"safar/internal/types"
)

var (
	ErrNotFound  = errors.New("driver not found")
	ErrNotDriver = errors.New("user is not a driver")
)

// Store is the driver-record query and mutation capability consumed by the
// locator and the lifecycle side effects.
type Store interface {
	Get(ctx context.Context, id types.ID) (*Driver, error)
	// Eligible returns every driver that is available, has coordinates, and
	// is not in the exclusion set. The scan is exhaustive; fine at this scale.
	Eligible(ctx context.Context, exclude map[types.ID]bool) ([]Driver, error)
	SetLocation(ctx context.Context, id types.ID, p types.Point) error
	SetAvailability(ctx context.Context, id types.ID, available bool) error
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, latitude, longitude, is_available
		FROM users
		WHERE id = $1 AND is_driver = TRUE`, string(id),
	)
	var d Driver
	var lat, lng *float64
	if err := row.Scan(&d.ID, &d.Name, &lat, &lng, &d.Available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.missing(ctx, id)
		}
		return nil, err
	}
	if lat != nil && lng != nil {
		d.Location = &types.Point{Lat: *lat, Lng: *lng}
	}
	return &d, nil
}

func (s *PGStore) Eligible(ctx context.Context, exclude map[types.ID]bool) ([]Driver, error) {
	excluded := make([]string, 0, len(exclude))
	for id := range exclude {
		excluded = append(excluded, string(id))
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, name, latitude, longitude, is_available
		FROM users
		WHERE is_driver = TRUE
		  AND is_available = TRUE
		  AND latitude IS NOT NULL
		  AND longitude IS NOT NULL
		  AND NOT (id = ANY($1))`, excluded,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Driver
	for rows.Next() {
		var d Driver
		var lat, lng float64
		if err := rows.Scan(&d.ID, &d.Name, &lat, &lng, &d.Available); err != nil {
			return nil, err
		}
		d.Location = &types.Point{Lat: lat, Lng: lng}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PGStore) SetLocation(ctx context.Context, id types.ID, p types.Point) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET latitude = $1, longitude = $2
		WHERE id = $3 AND is_driver = TRUE`,
		p.Lat, p.Lng, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.missing(ctx, id)
	}
	return nil
}

func (s *PGStore) SetAvailability(ctx context.Context, id types.ID, available bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET is_available = $1
		WHERE id = $2 AND is_driver = TRUE`,
		available, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.missing(ctx, id)
	}
	return nil
}

// missing resolves why a driver-scoped query matched no row: the id may be
// absent entirely, or belong to a user who is not a driver.
func (s *PGStore) missing(ctx context.Context, id types.ID) error {
	var isDriver bool
	err := s.db.QueryRow(ctx,
		`SELECT is_driver FROM users WHERE id = $1`, string(id),
	).Scan(&isDriver)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !isDriver {
		return ErrNotDriver
	}
	return ErrNotFound
}
