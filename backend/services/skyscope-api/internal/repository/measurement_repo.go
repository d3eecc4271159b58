package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"skyscope/backend/services/skyscope-api/internal/models"
)

const measurementColumns = `id, sensor_id, utc, "local", utc_at, local_at, temp, counts, frequency, reading, created_at`

// MeasurementRepository persists sensor readings in Postgres.
type MeasurementRepository struct {
	db *sql.DB
}

// NewMeasurementRepository returns repository.
func NewMeasurementRepository(db *sql.DB) *MeasurementRepository {
	return &MeasurementRepository{db: db}
}

// Insert appends a reading and fills its storage id.
func (r *MeasurementRepository) Insert(ctx context.Context, m *models.Measurement) error {
	const query = `
		INSERT INTO sensor_data (sensor_id, utc, "local", utc_at, local_at, temp, counts, frequency, reading, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		m.SensorID,
		m.UTC,
		m.Local,
		m.UTCAt,
		m.LocalAt,
		m.Temp,
		m.Counts,
		m.Frequency,
		m.Reading,
	).Scan(&m.ID, &m.CreatedAt)
}

// Latest returns the reading with the greatest local timestamp, optionally for one sensor.
func (r *MeasurementRepository) Latest(ctx context.Context, sensorID string) (*models.Measurement, error) {
	query := `SELECT ` + measurementColumns + ` FROM sensor_data`
	var args []interface{}
	if sensorID != "" {
		query += ` WHERE sensor_id = $1`
		args = append(args, sensorID)
	}
	query += ` ORDER BY local_at DESC, id DESC LIMIT 1`

	m, err := scanMeasurement(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// SinceUTC returns readings whose UTC timestamp is at or after since, ordered by local time.
func (r *MeasurementRepository) SinceUTC(ctx context.Context, since time.Time) ([]models.Measurement, error) {
	query := `SELECT ` + measurementColumns + ` FROM sensor_data WHERE utc_at >= $1 ORDER BY local_at ASC, id ASC`
	return r.list(ctx, query, since)
}

// Range returns readings matching q ordered by local time.
func (r *MeasurementRepository) Range(ctx context.Context, q MeasurementQuery) ([]models.Measurement, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if len(q.SensorIDs) > 0 {
		add("sensor_id = ANY($%d)", q.SensorIDs)
	}
	if q.From != nil {
		add("local_at >= $%d", *q.From)
	}
	if q.To != nil {
		add("local_at <= $%d", *q.To)
	}

	query := `SELECT ` + measurementColumns + ` FROM sensor_data`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY local_at ASC, id ASC`

	return r.list(ctx, query, args...)
}

func (r *MeasurementRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Measurement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.Measurement
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMeasurement(row rowScanner) (*models.Measurement, error) {
	var m models.Measurement
	if err := row.Scan(
		&m.ID,
		&m.SensorID,
		&m.UTC,
		&m.Local,
		&m.UTCAt,
		&m.LocalAt,
		&m.Temp,
		&m.Counts,
		&m.Frequency,
		&m.Reading,
		&m.CreatedAt,
	); err != nil {
		return nil, err
	}
	m.UTCAt = m.UTCAt.UTC()
	m.LocalAt = m.LocalAt.UTC()
	return &m, nil
}
