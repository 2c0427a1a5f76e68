package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mookzZ/fast-websockets/internal/config"
)

var ErrSendBufferFull = errors.New("send buffer full")

// Conn is the subset of *websocket.Conn the client drives.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client wraps one websocket connection bound to an authenticated user
// and a single chat for its whole lifetime. Outbound frames go through
// a buffered channel drained by the write pump, so a stalled peer never
// blocks the goroutine delivering a broadcast.
type Client struct {
	UserID   int64
	Username string
	ChatID   int64

	conn Conn
	send chan []byte
	cfg  config.WebSocketConfig

	closeOnce sync.Once
}

// NewClient creates a client for an upgraded connection.
func NewClient(conn Conn, userID int64, username string, chatID int64, cfg config.WebSocketConfig) *Client {
	buffer := cfg.SendBufferSize
	if buffer <= 0 {
		buffer = 256
	}
	return &Client{
		UserID:   userID,
		Username: username,
		ChatID:   chatID,
		conn:     conn,
		send:     make(chan []byte, buffer),
		cfg:      cfg,
	}
}

// Send enqueues a payload for the write pump. It never blocks; when the
// buffer is full the frame is dropped and ErrSendBufferFull returned so
// the caller can log and move on to other recipients.
func (c *Client) Send(payload []byte) error {
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// SendJSON marshals a message and enqueues it.
func (c *Client) SendJSON(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return c.Send(data)
}

// ReadPump reads inbound frames until the connection dies or the client
// closes. handle is called for each frame; cleanup runs exactly once on
// any exit path, before the connection is torn down.
func (c *Client) ReadPump(handle func(payload []byte), cleanup func()) {
	defer func() {
		cleanup()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		handle(payload)
	}
}

// WritePump drains the send queue and keeps the connection alive with
// pings. It exits on write failure or when the send channel is closed.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close writes a close control frame and shuts the connection down. Safe
// to call from any goroutine, and more than once.
func (c *Client) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(code, reason)
		c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
		c.conn.WriteMessage(websocket.CloseMessage, msg)
		c.conn.Close()
	})
}
