package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"skyscope/backend/services/skyscope-api/internal/models"
	"skyscope/backend/services/skyscope-api/internal/repository"
	"skyscope/backend/services/skyscope-api/internal/repository/memory"
	"skyscope/backend/services/skyscope-api/internal/secret"
)

type countingMeasurements struct {
	*memory.Store
	mu     sync.Mutex
	ranges int
}

func (c *countingMeasurements) Range(ctx context.Context, q repository.MeasurementQuery) ([]models.Measurement, error) {
	c.mu.Lock()
	c.ranges++
	c.mu.Unlock()
	return c.Store.Range(ctx, q)
}

type recordingSink struct {
	mu       sync.Mutex
	received []models.Measurement
}

func (r *recordingSink) Publish(m models.Measurement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, m)
}

type mapCache struct {
	mu    sync.Mutex
	known map[string]bool
	err   error
}

func newMapCache() *mapCache {
	return &mapCache{known: make(map[string]bool)}
}

func (c *mapCache) Remember(_ context.Context, sensorID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.known[sensorID] = true
	return nil
}

func (c *mapCache) Known(_ context.Context, sensorID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	return c.known[sensorID], nil
}

func registration(key string) RegistrationRequest {
	return RegistrationRequest{
		RegistrationKey: models.RawValue(`"` + key + `"`),
		ID:              models.RawValue(`"x"`),
		Name:            models.RawValue(`"A"`),
		Location:        models.RawValue(`"loc"`),
		Latitude:        models.RawValue("40.0"),
		Longitude:       models.RawValue("-111.0"),
		Elevation:       models.RawValue("1000"),
	}
}

func reading(sensorID, local, value string) MeasurementRequest {
	return MeasurementRequest{
		ID:        models.RawValue(`"` + sensorID + `"`),
		UTC:       models.RawValue(`"` + local + `"`),
		Local:     models.RawValue(`"` + local + `"`),
		Temp:      models.RawValue("-2.5"),
		Counts:    models.RawValue("1200"),
		Frequency: models.RawValue("35.1"),
		Reading:   models.RawValue(value),
	}
}

func TestRegisterThenAuthenticate(t *testing.T) {
	store := memory.NewStore()
	cache := newMapCache()
	svc := NewRegistrationService(store, secret.NewPlainVerifier("K"), cache, zap.NewNop())
	ctx := context.Background()

	first, err := svc.Register(ctx, registration("K"))
	require.NoError(t, err)
	require.True(t, first.Created)
	require.Equal(t, StatusRegistered, first.Status())
	require.Regexp(t, `^sensor-[0-9a-f-]{36}$`, first.Sensor.SensorID)
	require.Equal(t, models.SensorStatusActive, first.Sensor.Status)
	require.True(t, cache.known[first.Sensor.SensorID])

	renamed := registration("K")
	renamed.Name = models.RawValue(`"B"`)
	renamed.Location = models.RawValue(`"elsewhere"`)
	second, err := svc.Register(ctx, renamed)
	require.NoError(t, err)
	require.False(t, second.Created)
	require.Equal(t, StatusAuthenticated, second.Status())
	require.Equal(t, first.Sensor.SensorID, second.Sensor.SensorID)
	require.Equal(t, "A", second.Sensor.Name)

	list, err := store.ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRegisterDistinctCoordinatesGetDistinctIDs(t *testing.T) {
	store := memory.NewStore()
	svc := NewRegistrationService(store, secret.NewPlainVerifier("K"), nil, zap.NewNop())

	a, err := svc.Register(context.Background(), registration("K"))
	require.NoError(t, err)

	other := registration("K")
	other.Longitude = models.RawValue(`"-111.5"`)
	b, err := svc.Register(context.Background(), other)
	require.NoError(t, err)

	require.True(t, b.Created)
	require.NotEqual(t, a.Sensor.SensorID, b.Sensor.SensorID)
}

func TestRegisterValidation(t *testing.T) {
	store := memory.NewStore()
	svc := NewRegistrationService(store, secret.NewPlainVerifier("K"), nil, zap.NewNop())
	ctx := context.Background()

	cases := map[string]func(*RegistrationRequest){
		"missing key":     func(r *RegistrationRequest) { r.RegistrationKey = nil },
		"zero latitude":   func(r *RegistrationRequest) { r.Latitude = models.RawValue("0") },
		"empty name":      func(r *RegistrationRequest) { r.Name = models.RawValue(`""`) },
		"null elevation":  func(r *RegistrationRequest) { r.Elevation = models.RawValue("null") },
		"text longitude":  func(r *RegistrationRequest) { r.Longitude = models.RawValue(`"west"`) },
		"bad key as well": func(r *RegistrationRequest) { r.ID = nil; r.RegistrationKey = models.RawValue(`"nope"`) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := registration("K")
			mutate(&req)
			_, err := svc.Register(ctx, req)
			require.ErrorIs(t, err, ErrValidation)
		})
	}

	list, err := store.ListSummaries(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestRegisterWrongKey(t *testing.T) {
	store := memory.NewStore()
	svc := NewRegistrationService(store, secret.NewPlainVerifier("K"), nil, zap.NewNop())

	_, err := svc.Register(context.Background(), registration("wrong"))
	require.ErrorIs(t, err, ErrUnauthorized)

	numeric := registration("K")
	numeric.RegistrationKey = models.RawValue("42")
	_, err = svc.Register(context.Background(), numeric)
	require.ErrorIs(t, err, ErrUnauthorized)

	list, err := store.ListSummaries(context.Background())
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestRegisterConcurrentFirstSighting(t *testing.T) {
	store := memory.NewStore()
	svc := NewRegistrationService(store, secret.NewPlainVerifier("K"), nil, zap.NewNop())
	ctx := context.Background()

	const callers = 24
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]*RegistrationResult, callers)
		errs    = make([]error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = svc.Register(ctx, registration("K"))
		}(i)
	}
	close(start)
	wg.Wait()

	created := 0
	for i := range results {
		require.NoError(t, errs[i])
		if results[i].Created {
			created++
		}
		require.Equal(t, results[0].Sensor.SensorID, results[i].Sensor.SensorID)
	}
	require.Equal(t, 1, created)

	list, err := store.ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestIngestStoresVerbatimAndPublishes(t *testing.T) {
	store := memory.NewStore()
	_, err := store.CreateIfAbsent(context.Background(), &models.Sensor{SensorID: "s1", Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	sink := &recordingSink{}
	svc := NewIngestionService(store, store, nil, zap.NewNop(), sink)

	req := reading("s1", "2025-01-01T08:00:00", `"21.40"`)
	m, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	require.NotZero(t, m.ID)
	require.Equal(t, `"21.40"`, string(m.Reading))
	require.Equal(t, "2025-01-01T08:00:00", m.Local)
	require.Len(t, sink.received, 1)
	require.Equal(t, m.ID, sink.received[0].ID)
}

func TestIngestDuplicatePayloadCreatesTwoRecords(t *testing.T) {
	store := memory.NewStore()
	_, err := store.CreateIfAbsent(context.Background(), &models.Sensor{SensorID: "s1", Latitude: 1, Longitude: 1})
	require.NoError(t, err)
	svc := NewIngestionService(store, store, nil, zap.NewNop())

	req := reading("s1", "2025-01-01T08:00:00", "21.4")
	first, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, 2, store.Len())
}

func TestIngestRejectsMissingFields(t *testing.T) {
	store := memory.NewStore()
	_, err := store.CreateIfAbsent(context.Background(), &models.Sensor{SensorID: "s1", Latitude: 1, Longitude: 1})
	require.NoError(t, err)
	svc := NewIngestionService(store, store, nil, zap.NewNop())

	for name, mutate := range map[string]func(*MeasurementRequest){
		"no id":         func(r *MeasurementRequest) { r.ID = nil },
		"zero reading":  func(r *MeasurementRequest) { r.Reading = models.RawValue("0") },
		"empty local":   func(r *MeasurementRequest) { r.Local = models.RawValue(`""`) },
		"false counts":  func(r *MeasurementRequest) { r.Counts = models.RawValue("false") },
		"bad timestamp": func(r *MeasurementRequest) { r.UTC = models.RawValue(`"tomorrow"`) },
	} {
		t.Run(name, func(t *testing.T) {
			req := reading("s1", "2025-01-01T08:00:00", "21.4")
			mutate(&req)
			_, err := svc.Ingest(context.Background(), req)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
	require.Zero(t, store.Len())
}

func TestIngestUnknownSensor(t *testing.T) {
	store := memory.NewStore()
	svc := NewIngestionService(store, store, newMapCache(), zap.NewNop())

	_, err := svc.Ingest(context.Background(), reading("ghost", "2025-01-01T08:00:00", "21.4"))
	require.ErrorIs(t, err, ErrUnknownSensor)

	// Identity is checked before timestamps are parsed.
	_, err = svc.Ingest(context.Background(), reading("ghost", "01/01/2025 08:00", "21.4"))
	require.ErrorIs(t, err, ErrUnknownSensor)
	require.Zero(t, store.Len())
}

func TestIngestUsesAndBackfillsCache(t *testing.T) {
	store := memory.NewStore()
	_, err := store.CreateIfAbsent(context.Background(), &models.Sensor{SensorID: "s1", Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	cache := newMapCache()
	svc := NewIngestionService(store, store, cache, zap.NewNop())
	_, err = svc.Ingest(context.Background(), reading("s1", "2025-01-01T08:00:00", "21.4"))
	require.NoError(t, err)
	require.True(t, cache.known["s1"])

	cache.err = errors.New("redis down")
	_, err = svc.Ingest(context.Background(), reading("s1", "2025-01-01T08:05:00", "21.5"))
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())
}

func seedQueries(t *testing.T) (*QueryService, *countingMeasurements) {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	for i, id := range []string{"S1", "S2"} {
		_, err := store.CreateIfAbsent(ctx, &models.Sensor{SensorID: id, Name: "name-" + id, Latitude: 40, Longitude: float64(-111 - i)})
		require.NoError(t, err)
	}
	ingest := NewIngestionService(store, store, nil, zap.NewNop())
	for _, r := range []MeasurementRequest{
		reading("S1", "2025-01-01T09:00:00", "20.1"),
		reading("S2", "2025-01-01T08:00:00", "19.2"),
		reading("S1", "2025-01-01T08:00:00", "19.9"),
		reading("S2", "2025-01-02T07:00:00", "21.0"),
	} {
		_, err := ingest.Ingest(ctx, r)
		require.NoError(t, err)
	}

	counting := &countingMeasurements{Store: store}
	return NewQueryService(store, counting, zap.NewNop()), counting
}

func TestQuerySensorsAndLatest(t *testing.T) {
	svc, _ := seedQueries(t)
	ctx := context.Background()

	sensors, err := svc.Sensors(ctx)
	require.NoError(t, err)
	require.Equal(t, []models.SensorSummary{{Name: "name-S1", SensorID: "S1"}, {Name: "name-S2", SensorID: "S2"}}, sensors)

	latest, err := svc.Latest(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "2025-01-02T07:00:00", latest.Timestamp)
	require.Equal(t, "21.0", string(latest.Value))

	latest, err = svc.Latest(ctx, "S1")
	require.NoError(t, err)
	require.Equal(t, "2025-01-01T09:00:00", latest.Timestamp)

	_, err = svc.Latest(ctx, "ghost")
	require.ErrorIs(t, err, ErrNotFound)

	empty := NewQueryService(memory.NewStore(), memory.NewStore(), zap.NewNop())
	_, err = empty.Sensors(ctx)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestQueryLast12Hours(t *testing.T) {
	svc, _ := seedQueries(t)
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 20, 30, 0, 0, time.UTC) }

	rows, err := svc.Last12Hours(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "2025-01-01T09:00:00", rows[0].Local)
	require.Equal(t, "2025-01-02T07:00:00", rows[1].Local)

	svc.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	_, err = svc.Last12Hours(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestQueryFilter(t *testing.T) {
	svc, _ := seedQueries(t)
	ctx := context.Background()

	rows, err := svc.Filter(ctx, FilterParams{Sensors: "S1, S2,", StartDate: "2025-01-01", EndDate: "2025-01-01"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i := 1; i < len(rows); i++ {
		require.LessOrEqual(t, rows[i-1].Local, rows[i].Local)
	}

	rows, err = svc.Filter(ctx, FilterParams{Sensors: "S1", StartDate: "2025-01-01", StartTime: "08:30"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "S1", rows[0].SensorID)
	require.Equal(t, "20.1", string(rows[0].Reading))

	rows, err = svc.Filter(ctx, FilterParams{})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	_, err = svc.Filter(ctx, FilterParams{Sensors: "S3"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestQueryFilterStartAfterEndQueriesNothing(t *testing.T) {
	svc, counting := seedQueries(t)

	_, err := svc.Filter(context.Background(), FilterParams{
		Sensors:   "S1,S2",
		StartDate: "2025-01-01",
		EndDate:   "2025-01-01",
		StartTime: "08:00",
		EndTime:   "06:00",
	})
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = svc.Filter(context.Background(), FilterParams{StartDate: "2025-01-01", EndDate: "2025-01-01", EndTime: "99:00"})
	require.ErrorIs(t, err, ErrValidation)

	require.Zero(t, counting.ranges)
}
