package models

import "time"

// Measurement is a single sensor report. UTC and Local keep the submitted strings,
// UTCAt and LocalAt their parsed wall clocks used for filtering and ordering.
type Measurement struct {
	ID        int64     `db:"id" json:"-"`
	SensorID  string    `db:"sensor_id" json:"sensor_id"`
	UTC       string    `db:"utc" json:"utc"`
	Local     string    `db:"local" json:"local"`
	UTCAt     time.Time `db:"utc_at" json:"-"`
	LocalAt   time.Time `db:"local_at" json:"-"`
	Temp      Value     `db:"temp" json:"temp"`
	Counts    Value     `db:"counts" json:"counts"`
	Frequency Value     `db:"frequency" json:"frequency"`
	Reading   Value     `db:"reading" json:"reading"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// LatestReading is the projection served by the latest endpoint.
type LatestReading struct {
	Value     Value  `json:"value"`
	Timestamp string `json:"timestamp"`
}

// WindowRow is the projection of the fixed twelve hour window.
type WindowRow struct {
	UTC     string `json:"utc"`
	Local   string `json:"local"`
	Temp    Value  `json:"temp"`
	Reading Value  `json:"reading"`
}

// FilterRow is the projection of the filtered range query.
type FilterRow struct {
	UTC      string `json:"utc"`
	Local    string `json:"local"`
	Temp     Value  `json:"temp"`
	Reading  Value  `json:"reading"`
	SensorID string `json:"sensor_id"`
}

// AsWindowRow projects m to the twelve hour window shape.
func (m Measurement) AsWindowRow() WindowRow {
	return WindowRow{UTC: m.UTC, Local: m.Local, Temp: m.Temp, Reading: m.Reading}
}

// AsFilterRow projects m to the filter shape.
func (m Measurement) AsFilterRow() FilterRow {
	return FilterRow{UTC: m.UTC, Local: m.Local, Temp: m.Temp, Reading: m.Reading, SensorID: m.SensorID}
}

// AsLatest projects m to the latest reading shape.
func (m Measurement) AsLatest() LatestReading {
	return LatestReading{Value: m.Reading, Timestamp: m.Local}
}
