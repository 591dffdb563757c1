package notifications

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	// pingPeriod must stay below pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Inbound frames are only heartbeats.
	maxMessageSize = 512
	sendBuffer     = 256
)

// WSConn is the part of a websocket connection a Client drives.
type WSConn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// WSHub is implemented by hubs that own clients.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client pumps events from the hub to one websocket connection.
type Client struct {
	Hub  WSHub
	Conn WSConn
	// Send is closed by the hub on unregister.
	Send   chan []byte
	UserID uint
}

func NewClient(hub WSHub, conn WSConn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
	}
}

// ReadPump keeps the read deadline moving on pongs and answers application
// level pings from browsers that cannot see protocol pings. It returns when
// the peer goes away and unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Debug("websocket read error",
					slog.Uint64("user_id", uint64(c.UserID)),
					slog.String("error", err.Error()))
			}
			return
		}
		if kind == websocket.TextMessage && isPing(data) {
			_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
			if pong, err := MarshalEvent(EventPong, nil); err == nil {
				c.TrySend([]byte(pong))
			}
		}
	}
}

func isPing(data []byte) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return false
	}
	var frame struct {
		Type string `json:"type"`
	}
	return json.Unmarshal(data, &frame) == nil && frame.Type == "ping"
}

// WritePump writes queued events and periodic pings until Send is closed or
// a write fails.
func (c *Client) WritePump() {
	c.writeLoop(time.NewTicker(pingPeriod))
}

func (c *Client) writeLoop(ticker *time.Ticker) {
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues message without blocking. A full buffer drops the message;
// a client already unregistered drops it silently.
func (c *Client) TrySend(message []byte) {
	defer func() {
		if recover() != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
		middleware.Logger.Warn("websocket buffer full, dropped message",
			slog.Uint64("user_id", uint64(c.UserID)))
	}
}
