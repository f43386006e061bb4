package incident

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL incident repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create stores a new incident and fills in its generated fields.
func (r *PostgresRepository) Create(ctx context.Context, i *Incident) error {
	query := `
		INSERT INTO incidents (
			user_id, location_id, incident_type, description,
			image_path, latitude, longitude, place_name
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING incident_id, status, reported_at
	`

	return r.pool.QueryRow(ctx, query,
		i.UserID,
		i.LocationID,
		i.Type,
		i.Description,
		i.ImagePath,
		i.Latitude,
		i.Longitude,
		i.PlaceName,
	).Scan(&i.ID, &i.Status, &i.ReportedAt)
}

// GetByID returns one incident.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Incident, error) {
	query := `
		SELECT i.incident_id, i.user_id, i.location_id, i.incident_type,
			i.description, i.image_path, i.latitude, i.longitude, i.place_name,
			i.status, i.reported_at, u.name, l.name
		FROM incidents i
		JOIN users u ON i.user_id = u.user_id
		LEFT JOIN locations l ON i.location_id = l.location_id
		WHERE i.incident_id = $1
	`

	var incident Incident
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&incident.ID,
		&incident.UserID,
		&incident.LocationID,
		&incident.Type,
		&incident.Description,
		&incident.ImagePath,
		&incident.Latitude,
		&incident.Longitude,
		&incident.PlaceName,
		&incident.Status,
		&incident.ReportedAt,
		&incident.CitizenName,
		&incident.LocationName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIncidentNotFound
		}
		return nil, err
	}

	return &incident, nil
}

// List returns incidents newest first, optionally filtered by status.
func (r *PostgresRepository) List(ctx context.Context, status *Status) ([]Incident, error) {
	query := `
		SELECT i.incident_id, i.user_id, i.location_id, i.incident_type,
			i.description, i.image_path, i.latitude, i.longitude, i.place_name,
			i.status, i.reported_at, u.name, l.name
		FROM incidents i
		JOIN users u ON i.user_id = u.user_id
		LEFT JOIN locations l ON i.location_id = l.location_id
	`

	var (
		rows pgx.Rows
		err  error
	)
	if status != nil {
		rows, err = r.pool.Query(ctx, query+` WHERE i.status = $1 ORDER BY i.reported_at DESC`, *status)
	} else {
		rows, err = r.pool.Query(ctx, query+` ORDER BY i.reported_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []Incident
	for rows.Next() {
		var incident Incident
		if err := rows.Scan(
			&incident.ID,
			&incident.UserID,
			&incident.LocationID,
			&incident.Type,
			&incident.Description,
			&incident.ImagePath,
			&incident.Latitude,
			&incident.Longitude,
			&incident.PlaceName,
			&incident.Status,
			&incident.ReportedAt,
			&incident.CitizenName,
			&incident.LocationName,
		); err != nil {
			return nil, err
		}
		incidents = append(incidents, incident)
	}

	return incidents, rows.Err()
}

// UpdateStatus sets an incident's status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	query := `UPDATE incidents SET status = $1 WHERE incident_id = $2`

	tag, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIncidentNotFound
	}

	return nil
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
