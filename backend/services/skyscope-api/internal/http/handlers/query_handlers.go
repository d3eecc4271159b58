package handlers

import (
	"errors"
	"net/http"

	"skyscope/backend/services/skyscope-api/internal/service"
)

const noDataMessage = "No sensor data found"

// NewSensorsHandler returns handler for GET /sensors.
func NewSensorsHandler(query *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sensors, err := query.Sensors(r.Context())
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				writeError(w, http.StatusNotFound, "No sensors found")
				return
			}
			writeQueryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sensors)
	}
}

// NewLatestHandler returns handler for GET /sensorData/latest.
func NewLatestHandler(query *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latest, err := query.Latest(r.Context(), r.URL.Query().Get("sensorId"))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				writeError(w, http.StatusNotFound, noDataMessage)
				return
			}
			writeQueryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, latest)
	}
}

// NewLast12HoursHandler returns handler for GET /sensorData/last12hours.
func NewLast12HoursHandler(query *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := query.Last12Hours(r.Context())
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				writeError(w, http.StatusNotFound, noDataMessage)
				return
			}
			writeQueryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// NewFilterHandler returns handler for GET /sensorData/filter.
func NewFilterHandler(query *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		rows, err := query.Filter(r.Context(), service.FilterParams{
			Sensors:   q.Get("sensor"),
			StartDate: q.Get("startDate"),
			StartTime: q.Get("startTime"),
			EndDate:   q.Get("endDate"),
			EndTime:   q.Get("endTime"),
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidRange):
				writeError(w, http.StatusBadRequest, "Start time must not be after end time")
			case errors.Is(err, service.ErrValidation):
				writeError(w, http.StatusBadRequest, "Invalid date or time")
			case errors.Is(err, service.ErrNotFound):
				writeError(w, http.StatusNotFound, noDataMessage)
			default:
				writeQueryError(w, err)
			}
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}
