package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"skyscope/backend/libs/civiltime"
	"skyscope/backend/services/skyscope-api/internal/models"
)

// MeasurementRequest is the body a sensor sends with each reading.
type MeasurementRequest struct {
	ID        models.Value `json:"id"`
	UTC       models.Value `json:"utc"`
	Local     models.Value `json:"local"`
	Temp      models.Value `json:"temp"`
	Counts    models.Value `json:"counts"`
	Frequency models.Value `json:"frequency"`
	Reading   models.Value `json:"reading"`
}

// IngestionService admits readings from registered sensors.
type IngestionService struct {
	sensors      SensorRepository
	measurements MeasurementRepository
	cache        SensorCache
	sinks        []MeasurementSink
	logger       *zap.Logger
}

// NewIngestionService builds IngestionService. cache may be nil.
func NewIngestionService(sensors SensorRepository, measurements MeasurementRepository, cache SensorCache, logger *zap.Logger, sinks ...MeasurementSink) *IngestionService {
	return &IngestionService{
		sensors:      sensors,
		measurements: measurements,
		cache:        cache,
		sinks:        sinks,
		logger:       logger,
	}
}

// Ingest validates and stores one reading. Identical payloads are stored twice.
func (s *IngestionService) Ingest(ctx context.Context, req MeasurementRequest) (*models.Measurement, error) {
	if missing := req.missingFields(); len(missing) > 0 {
		s.logger.Info("sensor sent incomplete data", zap.Strings("missing", missing))
		return nil, fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}

	sensorID, ok := textOf(req.ID)
	if !ok {
		return nil, ErrUnknownSensor
	}
	known, err := s.isKnown(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	if !known {
		s.logger.Info("unregistered sensor sent data", zap.String("sensor_id", sensorID))
		return nil, ErrUnknownSensor
	}

	utcText, ok := textOf(req.UTC)
	if !ok {
		return nil, fmt.Errorf("%w: utc must be a string", ErrValidation)
	}
	localText, ok := textOf(req.Local)
	if !ok {
		return nil, fmt.Errorf("%w: local must be a string", ErrValidation)
	}
	utcAt, err := civiltime.Parse(utcText)
	if err != nil {
		return nil, fmt.Errorf("%w: utc: %v", ErrValidation, err)
	}
	localAt, err := civiltime.Parse(localText)
	if err != nil {
		return nil, fmt.Errorf("%w: local: %v", ErrValidation, err)
	}

	m := &models.Measurement{
		SensorID:  sensorID,
		UTC:       utcText,
		Local:     localText,
		UTCAt:     utcAt,
		LocalAt:   localAt,
		Temp:      req.Temp,
		Counts:    req.Counts,
		Frequency: req.Frequency,
		Reading:   req.Reading,
	}
	if err := s.measurements.Insert(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Debug("measurement stored", zap.String("sensor_id", sensorID), zap.Int64("id", m.ID))
	for _, sink := range s.sinks {
		sink.Publish(*m)
	}
	return m, nil
}

func (s *IngestionService) isKnown(ctx context.Context, sensorID string) (bool, error) {
	if s.cache != nil {
		known, err := s.cache.Known(ctx, sensorID)
		if err != nil {
			s.logger.Warn("sensor cache lookup failed", zap.String("sensor_id", sensorID), zap.Error(err))
		} else if known {
			return true, nil
		}
	}

	exists, err := s.sensors.ExistsBySensorID(ctx, sensorID)
	if err != nil {
		return false, err
	}
	if exists && s.cache != nil {
		if err := s.cache.Remember(ctx, sensorID); err != nil {
			s.logger.Warn("failed to cache sensor id", zap.String("sensor_id", sensorID), zap.Error(err))
		}
	}
	return exists, nil
}

func (r MeasurementRequest) missingFields() []string {
	fields := []struct {
		name  string
		value models.Value
	}{
		{"id", r.ID},
		{"utc", r.UTC},
		{"local", r.Local},
		{"temp", r.Temp},
		{"counts", r.Counts},
		{"frequency", r.Frequency},
		{"reading", r.Reading},
	}
	var missing []string
	for _, f := range fields {
		if !f.value.Truthy() {
			missing = append(missing, f.name)
		}
	}
	return missing
}
