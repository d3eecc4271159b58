package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"skyscope/backend/libs/civiltime"
	"skyscope/backend/services/skyscope-api/internal/models"
	"skyscope/backend/services/skyscope-api/internal/repository"
)

const recentWindow = 12 * time.Hour

// FilterParams are the raw query parameters of the filtered range query.
type FilterParams struct {
	Sensors   string
	StartDate string
	StartTime string
	EndDate   string
	EndTime   string
}

// QueryService answers the read-only dashboard queries.
type QueryService struct {
	sensors      SensorRepository
	measurements MeasurementRepository
	logger       *zap.Logger
	now          func() time.Time
}

// NewQueryService builds QueryService.
func NewQueryService(sensors SensorRepository, measurements MeasurementRepository, logger *zap.Logger) *QueryService {
	return &QueryService{
		sensors:      sensors,
		measurements: measurements,
		logger:       logger,
		now:          time.Now,
	}
}

// Sensors lists every registered sensor.
func (s *QueryService) Sensors(ctx context.Context) ([]models.SensorSummary, error) {
	list, err := s.sensors.ListSummaries(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list, nil
}

// Latest returns the most recent reading by local time, optionally for one sensor.
func (s *QueryService) Latest(ctx context.Context, sensorID string) (*models.LatestReading, error) {
	m, err := s.measurements.Latest(ctx, strings.TrimSpace(sensorID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	latest := m.AsLatest()
	return &latest, nil
}

// Last12Hours returns readings whose utc falls within the last twelve hours.
func (s *QueryService) Last12Hours(ctx context.Context) ([]models.WindowRow, error) {
	since := civiltime.FromInstant(s.now(), time.UTC).Add(-recentWindow)
	list, err := s.measurements.SinceUTC(ctx, since)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}

	rows := make([]models.WindowRow, 0, len(list))
	for _, m := range list {
		rows = append(rows, m.AsWindowRow())
	}
	return rows, nil
}

// Filter returns readings for the sensor set within the closed local-time window.
func (s *QueryService) Filter(ctx context.Context, params FilterParams) ([]models.FilterRow, error) {
	q, err := params.query()
	if err != nil {
		return nil, err
	}

	list, err := s.measurements.Range(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}

	rows := make([]models.FilterRow, 0, len(list))
	for _, m := range list {
		rows = append(rows, m.AsFilterRow())
	}
	return rows, nil
}

func (p FilterParams) query() (repository.MeasurementQuery, error) {
	var q repository.MeasurementQuery

	for _, id := range strings.Split(p.Sensors, ",") {
		if id = strings.TrimSpace(id); id != "" {
			q.SensorIDs = append(q.SensorIDs, id)
		}
	}

	start, hasStart, err := civiltime.StartBound(p.StartDate, p.StartTime)
	if err != nil {
		return q, fmt.Errorf("%w: start: %v", ErrValidation, err)
	}
	end, hasEnd, err := civiltime.EndBound(p.EndDate, p.EndTime)
	if err != nil {
		return q, fmt.Errorf("%w: end: %v", ErrValidation, err)
	}
	if hasStart && hasEnd && start.After(end) {
		return q, fmt.Errorf("%w: %s > %s", ErrInvalidRange, civiltime.Format(start), civiltime.Format(end))
	}

	if hasStart {
		q.From = &start
	}
	if hasEnd {
		q.To = &end
	}
	return q, nil
}
