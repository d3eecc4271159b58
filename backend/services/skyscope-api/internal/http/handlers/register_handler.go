package handlers

import (
	"errors"
	"net/http"

	"skyscope/backend/services/skyscope-api/internal/service"
)

// RegistrationRecorder counts registration outcomes.
type RegistrationRecorder interface {
	Registration(outcome string)
}

// NewRegisterHandler returns handler for POST /sensor-auth. recorder may be nil.
func NewRegisterHandler(registration *service.RegistrationService, recorder RegistrationRecorder) http.HandlerFunc {
	type response struct {
		Status   string `json:"status"`
		SensorID string `json:"sensor_id"`
	}

	record := func(outcome string) {
		if recorder != nil {
			recorder.Registration(outcome)
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req service.RegistrationRequest
		if err := decodeBody(w, r, &req); err != nil {
			record("rejected")
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		result, err := registration.Register(r.Context(), req)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrValidation):
				record("rejected")
				writeError(w, http.StatusBadRequest, "Missing Fields")
			case errors.Is(err, service.ErrUnauthorized):
				record("rejected")
				writeError(w, http.StatusForbidden, "Unauthorized sensor registration")
			default:
				writeError(w, http.StatusInternalServerError, "Server error")
			}
			return
		}

		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		record(result.Status())
		writeJSON(w, status, response{Status: result.Status(), SensorID: result.Sensor.SensorID})
	}
}
