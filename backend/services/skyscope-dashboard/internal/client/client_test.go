package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientQueries(t *testing.T) {
	var filterQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/sensors":
			_, _ = w.Write([]byte(`[{"name":"Roof","sensor_id":"S1"}]`))
		case "/sensorData/latest":
			if r.URL.Query().Get("sensorId") != "S1" {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":"No sensor data found"}`))
				return
			}
			_, _ = w.Write([]byte(`{"value":"21.4","timestamp":"2025-01-01T08:00:00"}`))
		case "/sensorData/filter":
			filterQuery = map[string]string{}
			for k := range r.URL.Query() {
				filterQuery[k] = r.URL.Query().Get(k)
			}
			_, _ = w.Write([]byte(`[{"utc":"2025-01-01T15:00:00","local":"2025-01-01T08:00:00","temp":-1,"reading":20.25,"sensor_id":"S1"}]`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Internal server error","details":"boom"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	ctx := context.Background()

	sensors, err := c.Sensors(ctx)
	require.NoError(t, err)
	require.Equal(t, []Sensor{{Name: "Roof", SensorID: "S1"}}, sensors)

	latest, err := c.Latest(ctx, "S1")
	require.NoError(t, err)
	require.True(t, latest.Value.Valid)
	require.Equal(t, 21.4, latest.Value.Value)

	_, err = c.Latest(ctx, "S2")
	require.ErrorIs(t, err, ErrNotFound)

	window := Window{
		Start: time.Date(2025, 1, 1, 7, 5, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 1, 19, 5, 0, 0, time.UTC),
	}
	rows, err := c.Filter(ctx, []string{"S1", "S2"}, window)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 20.25, rows[0].Reading.Value)
	require.Equal(t, map[string]string{
		"sensor":    "S1,S2",
		"startDate": "2025-01-01",
		"startTime": "07:05",
		"endDate":   "2025-01-01",
		"endTime":   "19:05",
	}, filterQuery)

	local, err := rows[0].LocalTime()
	require.NoError(t, err)
	require.Equal(t, 8, local.Hour())
}

func TestClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error","details":"boom"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Sensors(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)
	require.Equal(t, "Internal server error", apiErr.Message)
}

func TestNumber(t *testing.T) {
	var payload struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":1.5,"b":" 2 ","c":"dark","d":null}`), &payload))
	require.Equal(t, Number{Value: 1.5, Valid: true}, payload.A)
	require.Equal(t, Number{Value: 2, Valid: true}, payload.B)
	require.False(t, payload.C.Valid)
	require.Nil(t, payload.D.Ptr())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1.5,"b":2,"c":null,"d":null}`, string(out))
}
