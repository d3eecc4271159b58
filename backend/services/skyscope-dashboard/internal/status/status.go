// Package status derives sensor cards from the latest reading of each sensor.
package status

import (
	"context"
	"sync"
	"time"

	"skyscope/backend/libs/civiltime"
	"skyscope/backend/services/skyscope-dashboard/internal/client"
)

const (
	StateOnline  = "online"
	StateOffline = "offline"
	StateError   = "error"
)

// OnlineWindow is how recent a reading must be for its sensor to count as online.
const OnlineWindow = 10 * time.Minute

// Card summarises one sensor.
type Card struct {
	Name      string         `json:"name"`
	SensorID  string         `json:"sensor_id"`
	State     string         `json:"status"`
	Value     client.Number  `json:"value"`
	Timestamp string         `json:"timestamp,omitempty"`
	Age       *time.Duration `json:"-"`
}

// LatestFetcher is the part of the API client Collect needs.
type LatestFetcher interface {
	Sensors(ctx context.Context) ([]client.Sensor, error)
	Latest(ctx context.Context, sensorID string) (*client.Latest, error)
}

// Evaluate builds the card for sensor. Local timestamps carry no zone and are
// read in now's location.
func Evaluate(sensor client.Sensor, latest *client.Latest, err error, now time.Time) Card {
	card := Card{Name: sensor.Name, SensorID: sensor.SensorID, State: StateError}
	if err != nil || latest == nil {
		return card
	}

	card.Value = latest.Value
	card.Timestamp = latest.Timestamp

	wall, perr := civiltime.Parse(latest.Timestamp)
	if perr != nil {
		return card
	}
	reported := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), now.Location())
	age := now.Sub(reported)
	card.Age = &age
	if age <= OnlineWindow {
		card.State = StateOnline
	} else {
		card.State = StateOffline
	}
	return card
}

// Collect fetches the latest reading of every sensor concurrently. A failing
// lookup marks only that card as errored.
func Collect(ctx context.Context, api LatestFetcher, now time.Time) ([]Card, error) {
	sensors, err := api.Sensors(ctx)
	if err != nil {
		return nil, err
	}

	cards := make([]Card, len(sensors))
	var wg sync.WaitGroup
	for i, s := range sensors {
		wg.Add(1)
		go func(i int, s client.Sensor) {
			defer wg.Done()
			latest, err := api.Latest(ctx, s.SensorID)
			cards[i] = Evaluate(s, latest, err, now)
		}(i, s)
	}
	wg.Wait()
	return cards, nil
}
