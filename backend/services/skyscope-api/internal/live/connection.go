package live

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	readLimit = 4096
	pongWait  = 60 * time.Second
)

// Connection streams hub events to one WebSocket client.
type Connection struct {
	ws           *websocket.Conn
	events       chan Event
	hub          *Hub
	logger       *zap.Logger
	pingInterval time.Duration
	writeTimeout time.Duration
}

// NewConnection subscribes a client to hub.
func NewConnection(ws *websocket.Conn, hub *Hub, pingInterval, writeTimeout time.Duration, logger *zap.Logger) *Connection {
	return &Connection{
		ws:           ws,
		events:       hub.Subscribe(),
		hub:          hub,
		logger:       logger,
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
	}
}

// Start launches the write pump and blocks in the read pump until the client goes away.
func (c *Connection) Start() {
	go c.writePump()
	c.readPump()
}

// Clients never send data; reading only services control frames and detects close.
func (c *Connection) readPump() {
	defer c.cleanup()
	c.ws.SetReadLimit(readLimit)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.logger.Debug("live connection read closed", zap.Error(err))
			return
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-c.events:
			if !ok {
				_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				_ = c.ws.Close()
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				c.logger.Warn("failed to encode live event", zap.Error(err))
				continue
			}
			if err := c.write(websocket.TextMessage, data); err != nil {
				_ = c.ws.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				_ = c.ws.Close()
				return
			}
		}
	}
}

func (c *Connection) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Connection) cleanup() {
	c.hub.Unsubscribe(c.events)
	_ = c.ws.Close()
}
