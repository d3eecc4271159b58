package live

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const defaultPingInterval = 30 * time.Second

// Server upgrades HTTP requests to live measurement streams.
type Server struct {
	hub          *Hub
	logger       *zap.Logger
	pingInterval time.Duration
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

// NewServer builds ws server. checkOrigin may be nil to accept any origin.
func NewServer(hub *Hub, pingInterval, writeTimeout time.Duration, checkOrigin func(*http.Request) bool, logger *zap.Logger) *Server {
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Server{
		hub:          hub,
		logger:       logger,
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// HandleWS is the HTTP handler for /sensorData/live.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	connection := NewConnection(conn, s.hub, s.pingInterval, s.writeTimeout, s.logger)
	go connection.Start()
	s.logger.Debug("live subscriber connected", zap.String("remote", r.RemoteAddr))
}
