package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// client is one websocket connection held by this edge.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	// name is set once the coordinator confirmed the registration, guarded by Server.connectionsMutex.
	name string
}

func newClient(id string, conn *websocket.Conn, buffer int) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// push - queues a frame without blocking, reports false when the buffer is full.
func (that *client) push(payload []byte) bool {
	select {
	case <-that.done:
		return true
	default:
	}

	select {
	case that.send <- payload:
		return true
	default:
		return false
	}
}

func (that *client) close() {
	that.once.Do(func() {
		close(that.done)
		_ = that.conn.Close()
	})
}

// writePump - the only writer of the connection.
func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-that.done:
			return

		case payload := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				that.close()
				return
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				that.close()
				return
			}
		}
	}
}
