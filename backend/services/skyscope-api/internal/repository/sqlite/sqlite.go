// Package sqlite implements the sensor and measurement repositories on an embedded
// SQLite database through gorm, for single-node deployments and local development.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"skyscope/backend/services/skyscope-api/internal/models"
	"skyscope/backend/services/skyscope-api/internal/repository"
)

type sensorRow struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	SensorID  string  `gorm:"column:sensor_id;not null;uniqueIndex"`
	Name      string  `gorm:"not null"`
	Location  string  `gorm:"not null"`
	Latitude  float64 `gorm:"not null;uniqueIndex:idx_sensors_coordinates"`
	Longitude float64 `gorm:"not null;uniqueIndex:idx_sensors_coordinates"`
	Elevation float64 `gorm:"not null"`
	Status    string  `gorm:"not null"`
	CreatedAt time.Time
}

func (sensorRow) TableName() string { return "sensors" }

// Wall clocks are stored as fixed-width text, so lexical order is chronological order.
type measurementRow struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	SensorID  string `gorm:"column:sensor_id;not null;index:idx_sensor_data_sensor_local,priority:1"`
	UTC       string `gorm:"column:utc;not null"`
	Local     string `gorm:"column:local;not null"`
	UTCAt     string `gorm:"column:utc_at;not null;index"`
	LocalAt   string `gorm:"column:local_at;not null;index;index:idx_sensor_data_sensor_local,priority:2"`
	Temp      *string
	Counts    *string
	Frequency *string
	Reading   *string
	CreatedAt time.Time
}

func (measurementRow) TableName() string { return "sensor_data" }

// Migrate creates or updates both tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&sensorRow{}, &measurementRow{}); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// SensorRepository persists sensor identities.
type SensorRepository struct {
	db *gorm.DB
}

// NewSensorRepository returns repository.
func NewSensorRepository(db *gorm.DB) *SensorRepository {
	return &SensorRepository{db: db}
}

func (r *SensorRepository) GetByCoordinates(ctx context.Context, latitude, longitude float64) (*models.Sensor, error) {
	var row sensorRow
	err := r.db.WithContext(ctx).
		Where("latitude = ? AND longitude = ?", latitude, longitude).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

// CreateIfAbsent inserts the sensor unless its coordinates are already taken.
func (r *SensorRepository) CreateIfAbsent(ctx context.Context, sensor *models.Sensor) (bool, error) {
	row := sensorRow{
		SensorID:  sensor.SensorID,
		Name:      sensor.Name,
		Location:  sensor.Location,
		Latitude:  sensor.Latitude,
		Longitude: sensor.Longitude,
		Elevation: sensor.Elevation,
		Status:    sensor.Status,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	sensor.ID = row.ID
	sensor.CreatedAt = row.CreatedAt
	return true, nil
}

func (r *SensorRepository) ExistsBySensorID(ctx context.Context, sensorID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&sensorRow{}).
		Where("sensor_id = ?", sensorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *SensorRepository) ListSummaries(ctx context.Context) ([]models.SensorSummary, error) {
	var rows []sensorRow
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.SensorSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.SensorSummary{Name: row.Name, SensorID: row.SensorID})
	}
	return out, nil
}

func (row sensorRow) toModel() *models.Sensor {
	return &models.Sensor{
		ID:        row.ID,
		SensorID:  row.SensorID,
		Name:      row.Name,
		Location:  row.Location,
		Latitude:  row.Latitude,
		Longitude: row.Longitude,
		Elevation: row.Elevation,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
	}
}

// MeasurementRepository persists sensor readings.
type MeasurementRepository struct {
	db *gorm.DB
}

// NewMeasurementRepository returns repository.
func NewMeasurementRepository(db *gorm.DB) *MeasurementRepository {
	return &MeasurementRepository{db: db}
}

func (r *MeasurementRepository) Insert(ctx context.Context, m *models.Measurement) error {
	row := measurementRow{
		SensorID:  m.SensorID,
		UTC:       m.UTC,
		Local:     m.Local,
		UTCAt:     instantText(m.UTCAt),
		LocalAt:   instantText(m.LocalAt),
		Temp:      textOf(m.Temp),
		Counts:    textOf(m.Counts),
		Frequency: textOf(m.Frequency),
		Reading:   textOf(m.Reading),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	m.ID = row.ID
	m.CreatedAt = row.CreatedAt
	return nil
}

func (r *MeasurementRepository) Latest(ctx context.Context, sensorID string) (*models.Measurement, error) {
	tx := r.db.WithContext(ctx)
	if sensorID != "" {
		tx = tx.Where("sensor_id = ?", sensorID)
	}
	var row measurementRow
	if err := tx.Order("local_at DESC, id DESC").Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

func (r *MeasurementRepository) SinceUTC(ctx context.Context, since time.Time) ([]models.Measurement, error) {
	var rows []measurementRow
	err := r.db.WithContext(ctx).
		Where("utc_at >= ?", instantText(since)).
		Order("local_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModels(rows), nil
}

func (r *MeasurementRepository) Range(ctx context.Context, q repository.MeasurementQuery) ([]models.Measurement, error) {
	tx := r.db.WithContext(ctx)
	if len(q.SensorIDs) > 0 {
		tx = tx.Where("sensor_id IN ?", q.SensorIDs)
	}
	if q.From != nil {
		tx = tx.Where("local_at >= ?", instantText(*q.From))
	}
	if q.To != nil {
		tx = tx.Where("local_at <= ?", instantText(*q.To))
	}

	var rows []measurementRow
	if err := tx.Order("local_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toModels(rows), nil
}

func (row measurementRow) toModel() *models.Measurement {
	utcAt, _ := time.Parse(instantLayout, row.UTCAt)
	localAt, _ := time.Parse(instantLayout, row.LocalAt)
	return &models.Measurement{
		ID:        row.ID,
		SensorID:  row.SensorID,
		UTC:       row.UTC,
		Local:     row.Local,
		UTCAt:     utcAt,
		LocalAt:   localAt,
		Temp:      valueOf(row.Temp),
		Counts:    valueOf(row.Counts),
		Frequency: valueOf(row.Frequency),
		Reading:   valueOf(row.Reading),
		CreatedAt: row.CreatedAt,
	}
}

func toModels(rows []measurementRow) []models.Measurement {
	out := make([]models.Measurement, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row.toModel())
	}
	return out
}

// instantLayout keeps nanoseconds so readings within one second still order correctly.
const instantLayout = "2006-01-02T15:04:05.000000000"

func instantText(t time.Time) string {
	return t.UTC().Format(instantLayout)
}

func textOf(v models.Value) *string {
	if len(v) == 0 {
		return nil
	}
	s := string(v)
	return &s
}

func valueOf(s *string) models.Value {
	if s == nil {
		return nil
	}
	return models.Value(*s)
}
