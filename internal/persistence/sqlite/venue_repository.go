package sqlite

import (
	"context"

	"github.com/example/campus-scheduler/internal/persistence"
)

// VenueRepository implements persistence.VenueRepository on SQLite.
type VenueRepository struct {
	db *DB
}

// NewVenueRepository binds a repository to the shared handle.
func NewVenueRepository(db *DB) *VenueRepository {
	return &VenueRepository{db: db}
}

const venueColumns = "id, name, building, capacity, created_at, updated_at"

// CreateVenue inserts a new venue.
func (r *VenueRepository) CreateVenue(ctx context.Context, venue persistence.Venue) error {
	_, err := r.db.Handle().ExecContext(ctx, `
		INSERT INTO venues (`+venueColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		venue.ID,
		venue.Name,
		venue.Building,
		venue.Capacity,
		formatTime(venue.CreatedAt),
		formatTime(venue.UpdatedAt),
	)
	return mapError(err)
}

// UpdateVenue rewrites an existing venue.
func (r *VenueRepository) UpdateVenue(ctx context.Context, venue persistence.Venue) error {
	result, err := r.db.Handle().ExecContext(ctx, `
		UPDATE venues
		SET name = ?, building = ?, capacity = ?, updated_at = ?
		WHERE id = ?`,
		venue.Name,
		venue.Building,
		venue.Capacity,
		formatTime(venue.UpdatedAt),
		venue.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// GetVenue retrieves a venue by ID.
func (r *VenueRepository) GetVenue(ctx context.Context, id string) (persistence.Venue, error) {
	row := r.db.Handle().QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = ?`, id)
	return scanVenue(row)
}

// ListVenues returns every venue ordered by building then name.
func (r *VenueRepository) ListVenues(ctx context.Context) ([]persistence.Venue, error) {
	rows, err := r.db.Handle().QueryContext(ctx, `SELECT `+venueColumns+` FROM venues ORDER BY building, name, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	venues := make([]persistence.Venue, 0)
	for rows.Next() {
		venue, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, venue)
	}
	return venues, mapError(rows.Err())
}

// DeleteVenue removes a venue by ID. Meetings referencing it block the
// delete via the foreign key.
func (r *VenueRepository) DeleteVenue(ctx context.Context, id string) error {
	result, err := r.db.Handle().ExecContext(ctx, `DELETE FROM venues WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

func scanVenue(row rowScanner) (persistence.Venue, error) {
	var (
		venue              persistence.Venue
		createdAt, updated string
	)
	err := row.Scan(&venue.ID, &venue.Name, &venue.Building, &venue.Capacity, &createdAt, &updated)
	if err != nil {
		return persistence.Venue{}, mapError(err)
	}
	if venue.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Venue{}, err
	}
	if venue.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Venue{}, err
	}
	return venue, nil
}
