// Package client talks to the skyscope-api query endpoints.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"skyscope/backend/libs/civiltime"
)

// ErrNotFound is returned when the API reports an empty result.
var ErrNotFound = errors.New("client: no data")

// APIError is a non-2xx response other than 404.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: api returned %d: %s", e.Status, e.Message)
}

// Sensor is one entry of the sensor list.
type Sensor struct {
	Name     string `json:"name"`
	SensorID string `json:"sensor_id"`
}

// Latest is the most recent reading of a sensor.
type Latest struct {
	Value     Number `json:"value"`
	Timestamp string `json:"timestamp"`
}

// Row is one reading returned by the filter query.
type Row struct {
	UTC      string `json:"utc"`
	Local    string `json:"local"`
	Temp     Number `json:"temp"`
	Reading  Number `json:"reading"`
	SensorID string `json:"sensor_id"`
}

// Window is a closed local wall clock interval.
type Window struct {
	Start time.Time
	End   time.Time
}

type errorBody struct {
	Error string `json:"error"`
}

// Client wraps a resty client bound to the API base URL.
type Client struct {
	http *resty.Client
}

// New returns a client for baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json").
			SetError(&errorBody{}),
	}
}

// Sensors lists registered sensors.
func (c *Client) Sensors(ctx context.Context) ([]Sensor, error) {
	var out []Sensor
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/sensors")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Latest fetches the latest reading of sensorID.
func (c *Client) Latest(ctx context.Context, sensorID string) (*Latest, error) {
	var out Latest
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("sensorId", sensorID).
		SetResult(&out).
		Get("/sensorData/latest")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Filter fetches readings of sensors within window. An empty sensor list means all.
func (c *Client) Filter(ctx context.Context, sensors []string, window Window) ([]Row, error) {
	params := map[string]string{
		"startDate": window.Start.Format("2006-01-02"),
		"startTime": window.Start.Format("15:04"),
		"endDate":   window.End.Format("2006-01-02"),
		"endTime":   window.End.Format("15:04"),
	}
	if len(sensors) > 0 {
		params["sensor"] = strings.Join(sensors, ",")
	}

	var out []Row
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		Get("/sensorData/filter")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("client: request: %w", err)
	}
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	msg := resp.Status()
	if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
		msg = body.Error
	}
	return &APIError{Status: resp.StatusCode(), Message: msg}
}

// LocalTime parses a row's local timestamp as a wall clock.
func (r Row) LocalTime() (time.Time, error) {
	return civiltime.Parse(r.Local)
}
