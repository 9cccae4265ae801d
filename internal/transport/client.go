package transport

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// SessionHandle is the transport-agnostic handle SessionHub registers per
// connected client: a user identifier plus a way to push a raw frame. WSClient
// is the production implementation; tests can supply a trivial fake.
type SessionHandle interface {
	UserID() string
	Send(data []byte) error
}

// WSClient wraps a gorilla/websocket connection, grounded on the teacher's
// internal/websocket.Client: same buffered Send channel, same read/write
// pump split, same ping/pong keepalive.
type WSClient struct {
	conn   *websocket.Conn
	userID string
	send   chan []byte

	onMessage func(data []byte)
	onClose   func()
}

// NewWSClient creates a client bound to conn for userID. onMessage is invoked
// for every inbound frame; onClose is invoked once the connection is torn
// down (by either side).
func NewWSClient(conn *websocket.Conn, userID string, onMessage func([]byte), onClose func()) *WSClient {
	return &WSClient{
		conn:      conn,
		userID:    userID,
		send:      make(chan []byte, 256),
		onMessage: onMessage,
		onClose:   onClose,
	}
}

func (c *WSClient) UserID() string { return c.userID }

// Send enqueues a frame for delivery without blocking on the network. It
// returns an error if the client's outbound buffer is full and the
// connection must be dropped.
func (c *WSClient) Send(data []byte) error {
	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

// ReadPump pumps inbound frames to onMessage until the connection closes.
func (c *WSClient) ReadPump() {
	defer func() {
		c.conn.Close()
		if c.onClose != nil {
			c.onClose()
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", c.userID).Msg("websocket read error")
			}
			return
		}
		if c.onMessage != nil {
			c.onMessage(message)
		}
	}
}

// WritePump pumps queued frames to the connection until Send's channel is
// closed, sending pings on pingPeriod in between.
func (c *WSClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close closes the client's send channel, signalling WritePump to stop.
func (c *WSClient) Close() {
	close(c.send)
}

var errSendBufferFull = &sendBufferFullError{}

type sendBufferFullError struct{}

func (*sendBufferFullError) Error() string { return "transport: client send buffer full" }
