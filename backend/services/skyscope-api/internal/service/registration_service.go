package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skyscope/backend/services/skyscope-api/internal/models"
	"skyscope/backend/services/skyscope-api/internal/repository"
	"skyscope/backend/services/skyscope-api/internal/secret"
)

const (
	StatusRegistered    = "registered"
	StatusAuthenticated = "authenticated"
)

// RegistrationRequest is the body a sensor sends to obtain its identity.
type RegistrationRequest struct {
	RegistrationKey models.Value `json:"registration_key"`
	ID              models.Value `json:"id"`
	Name            models.Value `json:"name"`
	Location        models.Value `json:"location"`
	Latitude        models.Value `json:"latitude"`
	Longitude       models.Value `json:"longitude"`
	Elevation       models.Value `json:"elevation"`
}

// RegistrationResult carries the identity and whether this call created it.
type RegistrationResult struct {
	Sensor  *models.Sensor
	Created bool
}

// Status is the outcome reported to the sensor.
func (r RegistrationResult) Status() string {
	if r.Created {
		return StatusRegistered
	}
	return StatusAuthenticated
}

// RegistrationService hands out sensor identities keyed by coordinates.
type RegistrationService struct {
	repo     SensorRepository
	verifier secret.KeyVerifier
	cache    SensorCache
	logger   *zap.Logger
	newID    func() string
}

// NewRegistrationService builds RegistrationService. cache may be nil.
func NewRegistrationService(repo SensorRepository, verifier secret.KeyVerifier, cache SensorCache, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{
		repo:     repo,
		verifier: verifier,
		cache:    cache,
		logger:   logger,
		newID:    newSensorID,
	}
}

func newSensorID() string {
	return "sensor-" + uuid.NewString()
}

// Register returns the identity registered at the request's coordinates, creating it
// on first sighting. Concurrent first registrations converge on a single identity.
func (s *RegistrationService) Register(ctx context.Context, req RegistrationRequest) (*RegistrationResult, error) {
	if missing := req.missingFields(); len(missing) > 0 {
		s.logger.Warn("sensor registration with missing fields", zap.Strings("missing", missing))
		return nil, fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}

	latitude, ok := req.Latitude.Float()
	if !ok {
		return nil, fmt.Errorf("%w: latitude is not numeric", ErrValidation)
	}
	longitude, ok := req.Longitude.Float()
	if !ok {
		return nil, fmt.Errorf("%w: longitude is not numeric", ErrValidation)
	}
	elevation, ok := req.Elevation.Float()
	if !ok {
		return nil, fmt.Errorf("%w: elevation is not numeric", ErrValidation)
	}

	key, ok := textOf(req.RegistrationKey)
	if !ok || !s.verifier.Verify(key) {
		s.logger.Warn("sensor registration with invalid key", zap.String("name", req.Name.String()))
		return nil, ErrUnauthorized
	}

	existing, err := s.repo.GetByCoordinates(ctx, latitude, longitude)
	if err == nil {
		s.logger.Info("sensor authenticated", zap.String("sensor_id", existing.SensorID), zap.String("name", req.Name.String()))
		return &RegistrationResult{Sensor: existing}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	sensor := &models.Sensor{
		SensorID:  s.newID(),
		Name:      req.Name.String(),
		Location:  req.Location.String(),
		Latitude:  latitude,
		Longitude: longitude,
		Elevation: elevation,
		Status:    models.SensorStatusActive,
	}
	created, err := s.repo.CreateIfAbsent(ctx, sensor)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost the race for these coordinates; return the winner.
		winner, err := s.repo.GetByCoordinates(ctx, latitude, longitude)
		if err != nil {
			return nil, fmt.Errorf("registration: reload after conflict: %w", err)
		}
		s.logger.Info("sensor authenticated", zap.String("sensor_id", winner.SensorID), zap.Bool("concurrent", true))
		return &RegistrationResult{Sensor: winner}, nil
	}

	if s.cache != nil {
		if err := s.cache.Remember(ctx, sensor.SensorID); err != nil {
			s.logger.Warn("failed to cache sensor id", zap.String("sensor_id", sensor.SensorID), zap.Error(err))
		}
	}

	s.logger.Info("sensor registered",
		zap.String("sensor_id", sensor.SensorID),
		zap.String("name", sensor.Name),
		zap.Float64("latitude", latitude),
		zap.Float64("longitude", longitude),
	)
	return &RegistrationResult{Sensor: sensor, Created: true}, nil
}

func (r RegistrationRequest) missingFields() []string {
	fields := []struct {
		name  string
		value models.Value
	}{
		{"registration_key", r.RegistrationKey},
		{"id", r.ID},
		{"name", r.Name},
		{"location", r.Location},
		{"latitude", r.Latitude},
		{"longitude", r.Longitude},
		{"elevation", r.Elevation},
	}
	var missing []string
	for _, f := range fields {
		if !f.value.Truthy() {
			missing = append(missing, f.name)
		}
	}
	return missing
}
