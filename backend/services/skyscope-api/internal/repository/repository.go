package repository

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("repository: not found")

// MeasurementQuery selects measurements by sensor set and a closed interval over the
// local wall clock. Nil bounds are open; an empty SensorIDs matches every sensor.
type MeasurementQuery struct {
	SensorIDs []string
	From      *time.Time
	To        *time.Time
}
