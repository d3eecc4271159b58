// Package export mirrors stored measurements into InfluxDB for long-range analysis.
package export

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"

	"skyscope/backend/services/skyscope-api/internal/models"
)

const measurementName = "sky_brightness"

// Options locates the InfluxDB bucket.
type Options struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxMirror writes each published measurement as a point. Writes are batched and
// asynchronous; failures are logged and never reach the caller.
type InfluxMirror struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	logger   *zap.Logger
	done     chan struct{}
}

// NewInfluxMirror connects and verifies the server is healthy.
func NewInfluxMirror(ctx context.Context, opts Options, logger *zap.Logger) (*InfluxMirror, error) {
	client := influxdb2.NewClient(opts.URL, opts.Token)

	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("export: influx health: %w", err)
	}
	if health.Status != "pass" {
		client.Close()
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return nil, fmt.Errorf("export: influx unhealthy: %s", msg)
	}

	m := &InfluxMirror{
		client:   client,
		writeAPI: client.WriteAPI(opts.Org, opts.Bucket),
		logger:   logger,
		done:     make(chan struct{}),
	}
	go m.drainErrors()
	return m, nil
}

func (m *InfluxMirror) drainErrors() {
	defer close(m.done)
	for err := range m.writeAPI.Errors() {
		m.logger.Warn("influx write failed", zap.Error(err))
	}
}

// Publish implements service.MeasurementSink.
func (m *InfluxMirror) Publish(measurement models.Measurement) {
	point := PointFor(measurement)
	if point == nil {
		return
	}
	m.writeAPI.WritePoint(point)
}

// Close flushes pending points and releases the client.
func (m *InfluxMirror) Close() {
	m.writeAPI.Flush()
	m.client.Close()
	<-m.done
}

// PointFor converts a measurement into a line protocol point. Payload fields that are
// not numeric are left out; nil is returned when none are numeric.
func PointFor(measurement models.Measurement) *write.Point {
	fields := map[string]interface{}{}
	for name, value := range map[string]models.Value{
		"temp":      measurement.Temp,
		"counts":    measurement.Counts,
		"frequency": measurement.Frequency,
		"reading":   measurement.Reading,
	} {
		if f, ok := value.Float(); ok {
			fields[name] = f
		}
	}
	if len(fields) == 0 {
		return nil
	}

	return influxdb2.NewPoint(
		measurementName,
		map[string]string{"sensor_id": measurement.SensorID},
		fields,
		measurement.UTCAt,
	)
}
