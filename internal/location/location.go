// Package location exposes the monitored locations catalog.
package location

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Location is a monitored place with optional coordinates.
type Location struct {
	ID        int64    `json:"location_id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Repository is the persistence interface for locations.
type Repository interface {
	// List returns every monitored location.
	List(ctx context.Context) ([]Location, error)
}

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL location repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// List returns every monitored location.
func (r *PostgresRepository) List(ctx context.Context) ([]Location, error) {
	query := `SELECT location_id, name, latitude, longitude FROM locations ORDER BY location_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Latitude, &l.Longitude); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}

	return locations, rows.Err()
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
