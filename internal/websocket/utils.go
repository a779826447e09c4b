package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	PingPeriod = pongWait * 9 / 10
)

// Conn serializes writes to a gorilla connection, which allows one concurrent writer.
type Conn struct {
	*websocket.Conn
	mu sync.Mutex
}

// Wrap prepares conn for a long-lived stream: reads time out unless the client
// answers pings.
func Wrap(conn *websocket.Conn) *Conn {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &Conn{Conn: conn}
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func (c *Conn) WriteError(errMsg string) error {
	return c.WriteTyped(ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// Ping sends a control ping frame.
func (c *Conn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// CloseWith sends a close frame with code and reason, then closes the connection.
func (c *Conn) CloseWith(code int, reason string) error {
	c.mu.Lock()
	err := c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	c.mu.Unlock()
	if closeErr := c.Conn.Close(); err == nil {
		err = closeErr
	}
	return err
}

// ReadJSON reads and decodes a message into the provided structure,
// extending the read deadline on every message.
func (c *Conn) ReadJSON(v interface{}) error {
	if err := c.Conn.ReadJSON(v); err != nil {
		return err
	}
	return c.SetReadDeadline(time.Now().Add(pongWait))
}
