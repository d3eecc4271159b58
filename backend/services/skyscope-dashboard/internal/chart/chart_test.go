package chart

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"skyscope/backend/services/skyscope-dashboard/internal/client"
)

func decodeRows(t *testing.T, raw string) []client.Row {
	t.Helper()
	var rows []client.Row
	require.NoError(t, json.Unmarshal([]byte(raw), &rows))
	return rows
}

func TestPivotFillsAbsentSensors(t *testing.T) {
	rows := decodeRows(t, `[
		{"sensor_id":"S1","local":"2025-01-01T08:00:00","reading":20.5},
		{"sensor_id":"S2","local":"2025-01-01T08:00:00","reading":"19.75"},
		{"sensor_id":"S1","local":"2025-01-01T07:55:00","reading":21}
	]`)

	points := Pivot(rows, []string{"S1", "S2", "S3"})
	require.Len(t, points, 2)

	require.Equal(t, time.Date(2025, 1, 1, 7, 55, 0, 0, time.UTC), points[0].Timestamp)
	require.Nil(t, points[0].Values["S2"])
	require.Nil(t, points[0].Values["S3"])

	last := points[1]
	require.Equal(t, 20.5, *last.Values["S1"])
	require.Equal(t, 19.75, *last.Values["S2"])
	require.Contains(t, last.Values, "S3")
	require.Nil(t, last.Values["S3"])

	out, err := json.Marshal(last)
	require.NoError(t, err)
	require.JSONEq(t, `{"timestamp":1735718400000,"S1":20.5,"S2":19.75,"S3":null}`, string(out))
}

func TestPivotSkipsBadRows(t *testing.T) {
	rows := decodeRows(t, `[
		{"sensor_id":"S1","local":"not a time","reading":20},
		{"sensor_id":"S1","local":"2025-01-01T08:00:00","reading":"cloudy"}
	]`)

	points := Pivot(rows, nil)
	require.Len(t, points, 1)
	require.Contains(t, points[0].Values, "S1")
	require.Nil(t, points[0].Values["S1"])
}

func TestYAxis(t *testing.T) {
	rows := decodeRows(t, `[{"reading":18.2},{"reading":"21.3"},{"reading":"dark"}]`)

	axis := YAxis(rows, 5, Bounds{})
	require.Equal(t, 0.0, axis.Min)
	require.Equal(t, 25.0, axis.Max)
	require.Equal(t, []float64{0, 5, 10, 15, 20, 25}, axis.Ticks)

	lo, hi := 15.0, 22.0
	axis = YAxis(rows, 2, Bounds{Min: &lo, Max: &hi})
	require.Equal(t, []float64{15, 17, 19, 21}, axis.Ticks)

	axis = YAxis(nil, 5, Bounds{})
	require.Equal(t, 0.0, axis.Max)
	require.Equal(t, []float64{0}, axis.Ticks)
}

func TestYAxisFractionalStep(t *testing.T) {
	rows := decodeRows(t, `[{"reading":0.95}]`)

	axis := YAxis(rows, 0.1, Bounds{})
	require.Equal(t, 1.0, axis.Max)
	require.Equal(t, []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}, axis.Ticks)
}

func TestYAxisTickCap(t *testing.T) {
	huge := 1e12
	axis := YAxis(nil, 5, Bounds{Max: &huge})
	require.Equal(t, huge, axis.Max)
	require.Empty(t, axis.Ticks)

	lo, hi := 10.0, 5.0
	axis = YAxis(nil, 5, Bounds{Min: &lo, Max: &hi})
	require.Empty(t, axis.Ticks)
}

func TestHourTicks(t *testing.T) {
	start := time.Date(2025, 1, 1, 7, 5, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	ticks := HourTicks(start, end)
	require.Equal(t, []time.Time{
		time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		end,
	}, ticks)

	require.Len(t, HourTicks(end, end), 1)
	require.Empty(t, HourTicks(end, start))
}

func TestDefaultWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 19, 7, 42, 0, time.UTC)
	window := DefaultWindow(now)
	require.Equal(t, time.Date(2025, 1, 1, 19, 5, 0, 0, time.UTC), window.End)
	require.Equal(t, time.Date(2025, 1, 1, 7, 5, 0, 0, time.UTC), window.Start)
}

func TestWriteCSV(t *testing.T) {
	v := 20.5
	points := []Point{{
		Timestamp: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		Values:    map[string]*float64{"S1": &v, "S2": nil},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, points, []string{"S1", "S2"}))
	require.Equal(t, "timestamp,S1,S2\n2025-01-01T08:00:00,20.5,\n", buf.String())
}
