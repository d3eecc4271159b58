package repository

import (
	"context"
	"database/sql"
	"errors"

	"skyscope/backend/services/skyscope-api/internal/models"
)

// SensorRepository persists sensor identities in Postgres.
type SensorRepository struct {
	db *sql.DB
}

// NewSensorRepository returns repository.
func NewSensorRepository(db *sql.DB) *SensorRepository {
	return &SensorRepository{db: db}
}

// GetByCoordinates fetches the identity registered at an exact coordinate pair.
func (r *SensorRepository) GetByCoordinates(ctx context.Context, latitude, longitude float64) (*models.Sensor, error) {
	const query = `
		SELECT id, sensor_id, name, location, latitude, longitude, elevation, status, created_at
		FROM sensors
		WHERE latitude = $1 AND longitude = $2
		LIMIT 1
	`
	var s models.Sensor
	err := r.db.QueryRowContext(ctx, query, latitude, longitude).Scan(
		&s.ID,
		&s.SensorID,
		&s.Name,
		&s.Location,
		&s.Latitude,
		&s.Longitude,
		&s.Elevation,
		&s.Status,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// CreateIfAbsent inserts the sensor unless its coordinates are already taken.
// created is false when another identity owns the pair.
func (r *SensorRepository) CreateIfAbsent(ctx context.Context, sensor *models.Sensor) (bool, error) {
	const query = `
		INSERT INTO sensors (sensor_id, name, location, latitude, longitude, elevation, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (latitude, longitude) DO NOTHING
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		sensor.SensorID,
		sensor.Name,
		sensor.Location,
		sensor.Latitude,
		sensor.Longitude,
		sensor.Elevation,
		sensor.Status,
	).Scan(&sensor.ID, &sensor.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ExistsBySensorID reports whether an identity with the given sensor id exists.
func (r *SensorRepository) ExistsBySensorID(ctx context.Context, sensorID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM sensors WHERE sensor_id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, sensorID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListSummaries returns every sensor's name and id in registration order.
func (r *SensorRepository) ListSummaries(ctx context.Context) ([]models.SensorSummary, error) {
	const query = `
		SELECT name, sensor_id
		FROM sensors
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sensors []models.SensorSummary
	for rows.Next() {
		var s models.SensorSummary
		if err := rows.Scan(&s.Name, &s.SensorID); err != nil {
			return nil, err
		}
		sensors = append(sensors, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sensors, nil
}
