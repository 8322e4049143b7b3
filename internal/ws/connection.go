package ws

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/notification-service/internal/hub"
)

// Connection is one user's live socket. Outbound frames go through a
// buffered queue drained by writePump.
type Connection struct {
	conn   *websocket.Conn
	userID string
	send   chan []byte

	pingInterval  time.Duration
	writeDeadline time.Duration
	logger        *zap.SugaredLogger
	// onDrain runs on the writer goroutine each time the queue empties.
	onDrain func()

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func newConnection(conn *websocket.Conn, userID string, bufferSize int, pingInterval, writeDeadline time.Duration, logger *zap.SugaredLogger) *Connection {
	return &Connection{
		conn:          conn,
		userID:        userID,
		send:          make(chan []byte, bufferSize),
		pingInterval:  pingInterval,
		writeDeadline: writeDeadline,
		logger:        logger,
		done:          make(chan struct{}),
	}
}

// Send queues payload without blocking. A full or closed queue is an error
// so the hub can fall back to the pending queue.
func (c *Connection) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return hub.ErrChannelClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return errSendBufferFull
	}
}

// Close stops the writer, which sends a close frame and closes the socket.
// Safe to call more than once.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	return nil
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		_ = c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeDeadline))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				c.logger.Warnf("write msg error user=%s: %v", c.userID, err)
				return
			}
			if c.onDrain != nil && len(c.send) == 0 {
				c.onDrain()
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warnf("ping error user=%s: %v", c.userID, err)
				return
			}
		}
	}
}
