// Package live fans stored measurements out to WebSocket subscribers.
package live

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"skyscope/backend/services/skyscope-api/internal/models"
)

const (
	publishBuffer    = 256
	subscriberBuffer = 64
)

// Event is the message pushed to live subscribers for each stored measurement.
type Event struct {
	SensorID string       `json:"sensor_id"`
	UTC      string       `json:"utc"`
	Local    string       `json:"local"`
	Temp     models.Value `json:"temp"`
	Reading  models.Value `json:"reading"`
}

// Hub is a broadcast broker. Publishing never blocks: when the hub or a subscriber
// falls behind, the event is dropped and counted.
type Hub struct {
	subCount  int64
	dropCount uint64

	publishCh chan Event
	subCh     chan chan Event
	unsubCh   chan chan Event
	done      chan struct{}
	logger    *zap.Logger
}

// NewHub builds a hub; call Run to start delivering.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		publishCh: make(chan Event, publishBuffer),
		subCh:     make(chan chan Event),
		unsubCh:   make(chan chan Event),
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// Run delivers events until ctx is cancelled. Subscriber channels are closed on exit.
func (h *Hub) Run(ctx context.Context) {
	subs := map[chan Event]struct{}{}
	defer func() {
		close(h.done)
		for ch := range subs {
			close(ch)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ch := <-h.subCh:
			subs[ch] = struct{}{}
			atomic.StoreInt64(&h.subCount, int64(len(subs)))
		case ch := <-h.unsubCh:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			atomic.StoreInt64(&h.subCount, int64(len(subs)))
		case ev := <-h.publishCh:
			for ch := range subs {
				select {
				case ch <- ev:
				default:
					atomic.AddUint64(&h.dropCount, 1)
				}
			}
		}
	}
}

// Publish implements service.MeasurementSink.
func (h *Hub) Publish(m models.Measurement) {
	ev := Event{SensorID: m.SensorID, UTC: m.UTC, Local: m.Local, Temp: m.Temp, Reading: m.Reading}
	select {
	case h.publishCh <- ev:
	default:
		atomic.AddUint64(&h.dropCount, 1)
		h.logger.Debug("live hub saturated, dropping event", zap.String("sensor_id", m.SensorID))
	}
}

// Subscribe registers a new subscriber. The channel is closed by Unsubscribe or when
// the hub stops.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	select {
	case h.subCh <- ch:
	case <-h.done:
		close(ch)
	}
	return ch
}

// Unsubscribe removes and closes ch.
func (h *Hub) Unsubscribe(ch chan Event) {
	select {
	case h.unsubCh <- ch:
	case <-h.done:
	}
}

// SubCount returns the number of active subscribers.
func (h *Hub) SubCount() int {
	return int(atomic.LoadInt64(&h.subCount))
}

// DropCount returns how many deliveries were dropped.
func (h *Hub) DropCount() int {
	return int(atomic.LoadUint64(&h.dropCount))
}
