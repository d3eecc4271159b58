package handlers

import (
	"errors"
	"net/http"

	"skyscope/backend/services/skyscope-api/internal/service"
)

// NewIngestHandler returns handler for POST /sensor-data.
func NewIngestHandler(ingestion *service.IngestionService) http.HandlerFunc {
	type response struct {
		Success    bool  `json:"success"`
		InsertedID int64 `json:"insertedId"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req service.MeasurementRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		m, err := ingestion.Ingest(r.Context(), req)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrValidation):
				writeError(w, http.StatusBadRequest, "Missing required fields")
			case errors.Is(err, service.ErrUnknownSensor):
				writeError(w, http.StatusNotFound, "Sensor ID not recognized")
			default:
				writeError(w, http.StatusInternalServerError, "Server error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, response{Success: true, InsertedID: m.ID})
	}
}
