package aqi

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresReadingRepository is a PostgreSQL implementation of ReadingRepository.
type PostgresReadingRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresReadingRepository creates a new PostgreSQL reading repository.
func NewPostgresReadingRepository(pool *pgxpool.Pool) *PostgresReadingRepository {
	return &PostgresReadingRepository{pool: pool}
}

// LatestForLocation returns the most recent reading for one location.
func (r *PostgresReadingRepository) LatestForLocation(ctx context.Context, locationID int64) (*LocationReading, error) {
	query := `
		SELECT l.name, l.latitude, l.longitude, a.aqi, a.pm25, a.pm10, a.recorded_at
		FROM aqi_readings a
		JOIN locations l ON a.location_id = l.location_id
		WHERE a.location_id = $1
		ORDER BY a.recorded_at DESC
		LIMIT 1
	`

	var reading LocationReading
	err := r.pool.QueryRow(ctx, query, locationID).Scan(
		&reading.LocationName,
		&reading.Latitude,
		&reading.Longitude,
		&reading.AQI,
		&reading.PM25,
		&reading.PM10,
		&reading.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReadingNotFound
		}
		return nil, err
	}

	return &reading, nil
}

// LatestPerLocation returns the newest reading per location since the cutoff.
func (r *PostgresReadingRepository) LatestPerLocation(ctx context.Context, since time.Time) ([]LocationReading, error) {
	query := `
		SELECT DISTINCT ON (l.location_id)
			l.name, l.latitude, l.longitude, a.aqi, a.pm25, a.pm10, a.recorded_at
		FROM aqi_readings a
		LEFT JOIN locations l ON a.location_id = l.location_id
		WHERE a.recorded_at >= $1
		ORDER BY l.location_id, a.recorded_at DESC
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []LocationReading
	for rows.Next() {
		var reading LocationReading
		if err := rows.Scan(
			&reading.LocationName,
			&reading.Latitude,
			&reading.Longitude,
			&reading.AQI,
			&reading.PM25,
			&reading.PM10,
			&reading.RecordedAt,
		); err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}

	return readings, rows.Err()
}

// ListRecent returns all readings with known coordinates since the cutoff.
func (r *PostgresReadingRepository) ListRecent(ctx context.Context, since time.Time) ([]StoredReading, error) {
	query := `
		SELECT l.location_id, l.name, l.latitude, l.longitude,
			a.aqi, a.pm25, a.pm10, a.recorded_at
		FROM locations l
		JOIN aqi_readings a ON l.location_id = a.location_id
		WHERE l.latitude IS NOT NULL
		AND l.longitude IS NOT NULL
		AND a.recorded_at >= $1
		ORDER BY a.recorded_at DESC
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []StoredReading
	for rows.Next() {
		var reading StoredReading
		if err := rows.Scan(
			&reading.LocationID,
			&reading.LocationName,
			&reading.Latitude,
			&reading.Longitude,
			&reading.AQI,
			&reading.PM25,
			&reading.PM10,
			&reading.RecordedAt,
		); err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}

	return readings, rows.Err()
}

// Insert stores a new reading for a location.
func (r *PostgresReadingRepository) Insert(ctx context.Context, reading StoredReading) error {
	query := `
		INSERT INTO aqi_readings (location_id, pm25, pm10, aqi, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		reading.LocationID,
		reading.PM25,
		reading.PM10,
		reading.AQI,
		reading.RecordedAt,
	)
	return err
}

// Ensure PostgresReadingRepository implements ReadingRepository.
var _ ReadingRepository = (*PostgresReadingRepository)(nil)
