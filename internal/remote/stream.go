package remote

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/fleet-console/fleet-console-pro/internal/models"
)

// handshakeTimeout bounds the WebSocket dial to a device log stream
const handshakeTimeout = 10 * time.Second

// LogHandler receives decoded log events in delivery order
type LogHandler func(models.LogEvent)

// CloseHandler is told why a subscription ended; err is nil on a clean
// local close
type CloseHandler func(err error)

// LogSubscription is one open WebSocket to one device's log stream.
// At most one exists per device; the multiplexer enforces that.
type LogSubscription struct {
	deviceID string
	conn     *websocket.Conn
	once     sync.Once
	done     chan struct{}
}

// DeviceID returns the device this subscription belongs to
func (s *LogSubscription) DeviceID() string {
	return s.deviceID
}

// Close tears down the subscription. Safe to call more than once.
func (s *LogSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

// SubscribeLogs opens the per-device log stream and delivers events to
// handler until the stream ends or Close is called. A stream failure is
// reported through onClose and never affects any other subscription.
func (c *Client) SubscribeLogs(ctx context.Context, deviceID string, handler LogHandler, onClose CloseHandler) (*LogSubscription, error) {
	wsURL := c.logStreamURL(deviceID)

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, &APIError{Kind: KindConnectivity, Message: connectivityMessage, Err: err}
	}

	sub := &LogSubscription{
		deviceID: deviceID,
		conn:     conn,
		done:     make(chan struct{}),
	}

	go sub.readLoop(handler, onClose)

	log.Debug().Str("device_id", deviceID).Str("url", wsURL).Msg("log stream opened")
	return sub, nil
}

// readLoop reads until the connection breaks or is closed locally
func (s *LogSubscription) readLoop(handler LogHandler, onClose CloseHandler) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				// closed locally, not a stream failure
				if onClose != nil {
					onClose(nil)
				}
			default:
				log.Warn().Str("device_id", s.deviceID).Err(err).Msg("log stream read failed")
				s.Close()
				if onClose != nil {
					onClose(err)
				}
			}
			return
		}

		var event models.LogEvent
		if err := json.Unmarshal(data, &event); err != nil {
			// malformed payloads are dropped, never fatal
			log.Warn().Str("device_id", s.deviceID).Err(err).Msg("dropping malformed log payload")
			continue
		}

		handler(event)
	}
}

// logStreamURL derives the ws endpoint for a device from the REST base URL
func (c *Client) logStreamURL(deviceID string) string {
	base := c.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/logs/ws/" + deviceID
}
