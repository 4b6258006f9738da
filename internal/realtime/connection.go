package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/pkg/logger"
)

const (
	writeWait   = 10 * time.Second
	pingPeriod  = 30 * time.Second
	readLimit   = 4096
	sendBufSize = 128
)

// Session is the registry's view of a live connection. Implemented by
// Connection in production and by fakes in tests.
type Session interface {
	Send(payload []byte) error
	Close(code int, reason string)
}

// Connection wraps a websocket and serializes outbound writes through a
// buffered channel, so writes within one connection are delivered in call
// order and a slow client cannot stall other recipients.
type Connection struct {
	ID string

	ws    *websocket.Conn
	send  chan []byte
	close chan struct{}
	once  sync.Once

	// true once the client answered the most recent liveness probe
	probeAnswered atomic.Bool
}

// NewConnection constructs a Connection and starts its write loop.
func NewConnection(ws *websocket.Conn) *Connection {
	c := &Connection{
		ID:    uuid.NewString(),
		ws:    ws,
		send:  make(chan []byte, sendBufSize),
		close: make(chan struct{}),
	}
	c.probeAnswered.Store(true)
	go c.writeLoop()
	return c
}

// Send enqueues payload for delivery. If the client is slow and the buffer is
// full, the connection is closed to keep backpressure bounded.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.close:
		return errors.New("connection closed")
	case c.send <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return errors.New("connection buffer exceeded")
	}
}

// Close terminates the connection and stops the write loop.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.close)
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

// ReadLoop consumes client frames until the connection dies. The only
// client-to-server message is `{"event":"ping"}`, answered with a pong event;
// everything else is ignored. Returns when the socket closes for any reason.
func (c *Connection) ReadLoop() {
	c.ws.SetReadLimit(readLimit)
	c.ws.SetPongHandler(func(string) error {
		c.probeAnswered.Store(true)
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		// any inbound traffic proves liveness
		c.probeAnswered.Store(true)

		var env struct {
			Event string `json:"event"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		if env.Event == "ping" {
			if err := c.Send([]byte(`{"event":"pong"}`)); err != nil {
				return
			}
		}
	}
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.close:
			return
		case msg := <-c.send:
			if err := c.writeMessage(msg); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			// a connection that never answered the previous probe is dead
			if !c.probeAnswered.Load() {
				logger.Debug().Str("connection", c.ID).Msg("liveness probe unanswered, closing")
				c.Close(websocket.CloseGoingAway, "liveness probe failed")
				return
			}
			c.probeAnswered.Store(false)
			if err := c.writePing(); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) writeMessage(payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Connection) writePing() error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}
