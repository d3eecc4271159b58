// Package memory keeps sensors and measurements in process memory. It backs tests and
// ephemeral runs where no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"skyscope/backend/services/skyscope-api/internal/models"
	"skyscope/backend/services/skyscope-api/internal/repository"
)

type coordinates struct {
	latitude  float64
	longitude float64
}

// Store implements both repositories over one lock.
type Store struct {
	mu           sync.RWMutex
	sensors      []models.Sensor
	byCoords     map[coordinates]int
	bySensorID   map[string]int
	measurements []models.Measurement
	nextSensor   int64
	nextReading  int64
	now          func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		byCoords:   make(map[coordinates]int),
		bySensorID: make(map[string]int),
		now:        time.Now,
	}
}

func (s *Store) GetByCoordinates(_ context.Context, latitude, longitude float64) (*models.Sensor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byCoords[coordinates{latitude, longitude}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	sensor := s.sensors[idx]
	return &sensor, nil
}

func (s *Store) CreateIfAbsent(_ context.Context, sensor *models.Sensor) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := coordinates{sensor.Latitude, sensor.Longitude}
	if _, ok := s.byCoords[key]; ok {
		return false, nil
	}
	if _, ok := s.bySensorID[sensor.SensorID]; ok {
		return false, nil
	}

	s.nextSensor++
	sensor.ID = s.nextSensor
	sensor.CreatedAt = s.now().UTC()

	s.sensors = append(s.sensors, *sensor)
	s.byCoords[key] = len(s.sensors) - 1
	s.bySensorID[sensor.SensorID] = len(s.sensors) - 1
	return true, nil
}

func (s *Store) ExistsBySensorID(_ context.Context, sensorID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.bySensorID[sensorID]
	return ok, nil
}

func (s *Store) ListSummaries(_ context.Context) ([]models.SensorSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SensorSummary, 0, len(s.sensors))
	for _, sensor := range s.sensors {
		out = append(out, models.SensorSummary{Name: sensor.Name, SensorID: sensor.SensorID})
	}
	return out, nil
}

func (s *Store) Insert(_ context.Context, m *models.Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextReading++
	m.ID = s.nextReading
	m.CreatedAt = s.now().UTC()
	s.measurements = append(s.measurements, *m)
	return nil
}

func (s *Store) Latest(_ context.Context, sensorID string) (*models.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Measurement
	for i := range s.measurements {
		m := &s.measurements[i]
		if sensorID != "" && m.SensorID != sensorID {
			continue
		}
		if latest == nil || !m.LocalAt.Before(latest.LocalAt) {
			latest = m
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (s *Store) SinceUTC(_ context.Context, since time.Time) ([]models.Measurement, error) {
	return s.collect(func(m *models.Measurement) bool {
		return !m.UTCAt.Before(since)
	}), nil
}

func (s *Store) Range(_ context.Context, q repository.MeasurementQuery) ([]models.Measurement, error) {
	var wanted map[string]struct{}
	if len(q.SensorIDs) > 0 {
		wanted = make(map[string]struct{}, len(q.SensorIDs))
		for _, id := range q.SensorIDs {
			wanted[id] = struct{}{}
		}
	}

	return s.collect(func(m *models.Measurement) bool {
		if wanted != nil {
			if _, ok := wanted[m.SensorID]; !ok {
				return false
			}
		}
		if q.From != nil && m.LocalAt.Before(*q.From) {
			return false
		}
		if q.To != nil && m.LocalAt.After(*q.To) {
			return false
		}
		return true
	}), nil
}

// Len reports how many measurements are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.measurements)
}

func (s *Store) collect(match func(*models.Measurement) bool) []models.Measurement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Measurement
	for i := range s.measurements {
		if match(&s.measurements[i]) {
			out = append(out, s.measurements[i])
		}
	}
	// Insertion order breaks ties, matching the id tiebreak of the SQL stores.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LocalAt.Before(out[j].LocalAt)
	})
	return out
}
