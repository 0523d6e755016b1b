package ws

import (
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// envelope is the wire format in both directions: a named event plus its
// JSON payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Client owns the write side of one socket. Sends go through a buffered
// channel drained by writePump; when the buffer is full the frame is dropped
// rather than blocking a broadcast.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	log  *zap.SugaredLogger
	done chan struct{}
}

func newClient(conn *websocket.Conn, log *zap.SugaredLogger) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, 256),
		log:  log,
		done: make(chan struct{}),
	}
}

// Send queues one event for delivery. Safe to call after the connection is
// gone; the frame is silently discarded.
func (c *Client) Send(event string, data any) {
	b, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		c.log.Warnw("ws: marshal outbound", "event", event, "err", err)
		return
	}
	select {
	case c.send <- b:
	case <-c.done:
	default:
		c.log.Warnw("ws: send buffer full, dropping frame", "event", event)
	}
}

func (c *Client) close() {
	close(c.done)
}

// writePump serializes all writes to the connection and keeps it alive with
// pings. It exits when the send channel is unreachable or a write fails.
func (c *Client) writePump(pingInterval, writeDeadline time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
