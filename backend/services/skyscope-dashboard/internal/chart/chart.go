// Package chart turns filter rows into a per-sensor time series.
package chart

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"time"

	"skyscope/backend/libs/civiltime"
	"skyscope/backend/services/skyscope-dashboard/internal/client"
)

// WindowSpan is the default chart width.
const WindowSpan = 12 * time.Hour

const roundTo = 5 * time.Minute

// Point is one chart bucket. A nil value marks a selected sensor absent at Timestamp.
type Point struct {
	Timestamp time.Time
	Values    map[string]*float64
}

// MarshalJSON renders the point flat, with the timestamp in unix milliseconds.
func (p Point) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(p.Values))
	for id := range p.Values {
		keys = append(keys, id)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString(`{"timestamp":`)
	ts, _ := json.Marshal(p.Timestamp.UnixMilli())
	buf.Write(ts)
	for _, id := range keys {
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		if v := p.Values[id]; v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
			val, _ := json.Marshal(*v)
			buf.Write(val)
		} else {
			buf.WriteString("null")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Pivot buckets rows by their exact local instant, oldest first. Every selected
// sensor gets a key in every bucket. Rows with an unparseable local time are skipped.
func Pivot(rows []client.Row, selected []string) []Point {
	buckets := make(map[time.Time]*Point)
	for _, row := range rows {
		at, err := row.LocalTime()
		if err != nil {
			continue
		}
		p, ok := buckets[at]
		if !ok {
			p = &Point{Timestamp: at, Values: make(map[string]*float64)}
			buckets[at] = p
		}
		p.Values[row.SensorID] = row.Reading.Ptr()
	}

	points := make([]Point, 0, len(buckets))
	for _, p := range buckets {
		for _, id := range selected {
			if _, ok := p.Values[id]; !ok {
				p.Values[id] = nil
			}
		}
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points
}

// Bounds overrides either end of the vertical axis.
type Bounds struct {
	Min *float64
	Max *float64
}

// Axis is the vertical axis of the chart.
type Axis struct {
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
	Step  float64   `json:"step"`
	Ticks []float64 `json:"ticks"`
}

// YAxis rounds the largest reading up to the next multiple of step. The lower
// bound stays at zero unless overridden.
func YAxis(rows []client.Row, step float64, override Bounds) Axis {
	var top float64
	for _, row := range rows {
		if row.Reading.Valid && row.Reading.Value > top {
			top = row.Reading.Value
		}
	}

	axis := Axis{Step: step}
	if step > 0 {
		axis.Max = snap(math.Ceil(top/step) * step)
	}
	if override.Min != nil {
		axis.Min = *override.Min
	}
	if override.Max != nil {
		axis.Max = *override.Max
	}
	if step <= 0 || axis.Min > axis.Max {
		return axis
	}

	// Ticks are derived from their index so float error does not accumulate.
	count := math.Floor((axis.Max-axis.Min)/step+tickEpsilon) + 1
	if count > MaxTicks {
		return axis
	}
	axis.Ticks = make([]float64, 0, int(count))
	for i := 0; i < int(count); i++ {
		axis.Ticks = append(axis.Ticks, snap(axis.Min+float64(i)*step))
	}
	return axis
}

// MaxTicks bounds the vertical tick list. Wider ranges get no ticks.
const MaxTicks = 1000

const (
	tickEpsilon = 1e-9
	snapScale   = 1e9
)

// snap drops binary rounding noise below nine decimal places.
func snap(v float64) float64 {
	return math.Round(v*snapScale) / snapScale
}

// HourTicks lists every whole hour within [start, end].
func HourTicks(start, end time.Time) []time.Time {
	first := start.Truncate(time.Hour)
	if first.Before(start) {
		first = first.Add(time.Hour)
	}
	var ticks []time.Time
	for t := first; !t.After(end); t = t.Add(time.Hour) {
		ticks = append(ticks, t)
	}
	return ticks
}

// DefaultWindow ends at now rounded down to five minutes and spans WindowSpan.
func DefaultWindow(now time.Time) client.Window {
	end := now.Truncate(roundTo)
	return client.Window{Start: end.Add(-WindowSpan), End: end}
}

// Label renders a bucket timestamp the way the API reports local times.
func Label(t time.Time) string {
	return civiltime.Format(t)
}
