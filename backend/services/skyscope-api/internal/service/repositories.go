package service

import (
	"bytes"
	"context"
	"time"

	"skyscope/backend/services/skyscope-api/internal/models"
	"skyscope/backend/services/skyscope-api/internal/repository"
)

// SensorRepository defines the identity storage used by the services.
type SensorRepository interface {
	GetByCoordinates(ctx context.Context, latitude, longitude float64) (*models.Sensor, error)
	CreateIfAbsent(ctx context.Context, sensor *models.Sensor) (bool, error)
	ExistsBySensorID(ctx context.Context, sensorID string) (bool, error)
	ListSummaries(ctx context.Context) ([]models.SensorSummary, error)
}

// MeasurementRepository defines the reading storage used by the services.
type MeasurementRepository interface {
	Insert(ctx context.Context, m *models.Measurement) error
	Latest(ctx context.Context, sensorID string) (*models.Measurement, error)
	SinceUTC(ctx context.Context, since time.Time) ([]models.Measurement, error)
	Range(ctx context.Context, q repository.MeasurementQuery) ([]models.Measurement, error)
}

// SensorCache remembers registered sensor ids. Implementations may be lossy.
type SensorCache interface {
	Remember(ctx context.Context, sensorID string) error
	Known(ctx context.Context, sensorID string) (bool, error)
}

// MeasurementSink receives every measurement after it was stored.
type MeasurementSink interface {
	Publish(m models.Measurement)
}

// textOf returns the content of a JSON string value.
func textOf(v models.Value) (string, bool) {
	raw := bytes.TrimSpace(v)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	return v.String(), true
}
