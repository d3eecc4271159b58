package models

import "time"

// SensorStatusActive is the only lifecycle state registration produces.
const SensorStatusActive = "active"

// Sensor is the identity record minted on first registration from a coordinate pair.
type Sensor struct {
	ID        int64     `db:"id" json:"-"`
	SensorID  string    `db:"sensor_id" json:"sensor_id"`
	Name      string    `db:"name" json:"name"`
	Location  string    `db:"location" json:"location"`
	Latitude  float64   `db:"latitude" json:"latitude"`
	Longitude float64   `db:"longitude" json:"longitude"`
	Elevation float64   `db:"elevation" json:"elevation"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SensorSummary is the public projection used by the sensor list.
type SensorSummary struct {
	Name     string `json:"name"`
	SensorID string `json:"sensor_id"`
}
