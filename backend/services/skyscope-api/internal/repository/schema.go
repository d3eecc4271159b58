package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sensors (
		id         BIGSERIAL PRIMARY KEY,
		sensor_id  TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		location   TEXT NOT NULL,
		latitude   DOUBLE PRECISION NOT NULL,
		longitude  DOUBLE PRECISION NOT NULL,
		elevation  DOUBLE PRECISION NOT NULL,
		status     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT sensors_coordinates_key UNIQUE (latitude, longitude)
	)`,
	`CREATE TABLE IF NOT EXISTS sensor_data (
		id         BIGSERIAL PRIMARY KEY,
		sensor_id  TEXT NOT NULL,
		utc        TEXT NOT NULL,
		"local"    TEXT NOT NULL,
		utc_at     TIMESTAMP NOT NULL,
		local_at   TIMESTAMP NOT NULL,
		temp       TEXT,
		counts     TEXT,
		frequency  TEXT,
		reading    TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS sensor_data_local_at_idx ON sensor_data (local_at)`,
	`CREATE INDEX IF NOT EXISTS sensor_data_sensor_local_at_idx ON sensor_data (sensor_id, local_at)`,
	`CREATE INDEX IF NOT EXISTS sensor_data_utc_at_idx ON sensor_data (utc_at)`,
}

// EnsureSchema creates the sensors and sensor_data tables when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("repository: ensure schema: %w", err)
		}
	}
	return nil
}
