// Package websocket is the connection edge: it terminates client websockets, forwards their intents
// to the coordinator and writes the deliveries addressed to them. It keeps no game state.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
)

const defaultSendBuffer = 32

type Bus interface {
	PublishIntent(ctx context.Context, intent protocol.Intent) error
	Deliveries(ctx context.Context, edgeID string) (<-chan protocol.Delivery, error)
}

type Options struct {
	HeartbeatInterval time.Duration
	SendBuffer        int
	Backoff           Backoff
}

type Server struct {
	logger *slog.Logger
	bus    Bus
	edgeID string
	opts   Options

	upgrader websocket.Upgrader

	connectionsMutex sync.RWMutex
	connections      map[string]*client
}

func New(logger *slog.Logger, bus Bus, edgeID string, opts Options) *Server {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}

	if opts.Backoff.InitialInterval <= 0 {
		opts.Backoff = defaultBackoff
	}

	return &Server{
		logger: logger.With("component", "edge", "edge", edgeID),
		bus:    bus,
		edgeID: edgeID,
		opts:   opts,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		connections: make(map[string]*client),
	}
}

// Attach - subscribes to the deliveries of this edge and announces it to the coordinator.
// Deliveries are consumed and heartbeats sent until ctx is done.
func (that *Server) Attach(ctx context.Context) error {
	deliveries, err := that.bus.Deliveries(ctx, that.edgeID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to deliveries: %w", err)
	}

	if err = that.bus.PublishIntent(ctx, protocol.Hello(that.edgeID)); err != nil {
		return fmt.Errorf("failed to announce edge: %w", err)
	}

	go that.consume(ctx, deliveries)

	if that.opts.HeartbeatInterval > 0 {
		go that.heartbeat(ctx)
	}

	return nil
}

// Start - starts the websocket server, it stops and closes every connection when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", that.Handler(ctx))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Handler - upgrades requests to websocket connections.
func (that *Server) Handler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		that.serveConnection(ctx, writer, req)
	})
}

func (that *Server) serveConnection(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(pkg.NewConnID(), conn, that.opts.SendBuffer)

	that.connectionsMutex.Lock()
	that.connections[c.id] = c
	that.connectionsMutex.Unlock()

	log.Info("WebSocket connection established", "conn", c.id)

	// hijacked connections outlive http.Server.Shutdown
	go func() {
		select {
		case <-ctx.Done():
			c.close()
		case <-c.done:
		}
	}()

	go c.writePump()

	that.readPump(ctx, c)

	that.connectionsMutex.Lock()
	delete(that.connections, c.id)
	that.connectionsMutex.Unlock()

	c.close()

	if err = that.bus.PublishIntent(ctx, protocol.Disconnect(that.ref(c))); err != nil {
		log.Error("failed to publish disconnect", "conn", c.id, "error", err)
	}

	log.Info("WebSocket connection closed", "conn", c.id)
}

// readPump - decodes client frames and forwards them as intents until the connection drops.
func (that *Server) readPump(ctx context.Context, c *client) {
	log := that.logger.With("method", "readPump", "conn", c.id)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("connection dropped", "error", err)
			}
			return
		}

		msg, err := protocol.Decode(raw)
		if err != nil {
			if protocol.IsDroppable(err) {
				log.Warn("dropping frame", "error", err)
				continue
			}

			that.reply(c, protocol.ErrorEvent(err))
			continue
		}

		if err = that.bus.PublishIntent(ctx, protocol.Intent{From: that.ref(c), Message: msg}); err != nil {
			log.Error("failed to publish intent", "type", msg.Type, "error", err)
			that.reply(c, protocol.ErrorEvent(err))
		}
	}
}

func (that *Server) heartbeat(ctx context.Context) {
	log := that.logger.With("method", "heartbeat")

	ticker := time.NewTicker(that.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := that.bus.PublishIntent(ctx, protocol.Heartbeat(that.edgeID)); err != nil && ctx.Err() == nil {
				log.Error("failed to publish heartbeat", "error", err)
			}
		}
	}
}

// consume - applies deliveries, resubscribing with backoff when the subscription ends.
func (that *Server) consume(ctx context.Context, deliveries <-chan protocol.Delivery) {
	log := that.logger.With("method", "consume")

	for {
		select {
		case <-ctx.Done():
			return

		case delivery, ok := <-deliveries:
			if ok {
				that.deliver(delivery)
				continue
			}

			log.Warn("delivery subscription lost")

			deliveries = that.resubscribe(ctx)
			if deliveries == nil {
				return
			}
		}
	}
}

// resubscribe - deliveries may have been missed meanwhile, so local sessions are dropped
// and the edge announces itself again.
func (that *Server) resubscribe(ctx context.Context) <-chan protocol.Delivery {
	log := that.logger.With("method", "resubscribe")

	attempt := 0
	deliveries, err := backoff.RetryNotifyWithData(func() (<-chan protocol.Delivery, error) {
		attempt++
		return that.bus.Deliveries(ctx, that.edgeID)
	}, that.opts.Backoff.newBackOff(ctx), func(err error, next time.Duration) {
		log.Error("failed to resubscribe", "attempt", attempt, "retry_in", next, "error", err)
	})
	if err != nil {
		return nil
	}

	that.deliver(protocol.Delivery{Reset: true, Message: ptr(protocol.SessionLost())})

	if err = that.bus.PublishIntent(ctx, protocol.Hello(that.edgeID)); err != nil {
		log.Error("failed to announce edge", "error", err)
	}

	log.Info("delivery subscription restored", "attempt", attempt)

	return deliveries
}

// deliver - applies one delivery to the local connections.
func (that *Server) deliver(delivery protocol.Delivery) {
	log := that.logger.With("method", "deliver")

	var payload []byte
	if delivery.Message != nil {
		raw, err := json.Marshal(delivery.Message)
		if err != nil {
			log.Error("failed to marshal message", "error", err)
			return
		}
		payload = raw
	}

	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	switch {
	case delivery.Reset:
		for _, c := range that.connections {
			if c.name == "" {
				continue
			}
			c.name = ""
			that.write(c, payload)
		}

	case delivery.IsBroadcast():
		for _, c := range that.connections {
			if c.name != "" {
				that.write(c, payload)
			}
		}

	default:
		c, ok := that.connections[delivery.Conn]
		if !ok {
			log.Debug("delivery for a closed connection", "conn", delivery.Conn)
			return
		}

		if delivery.Bind != "" {
			c.name = delivery.Bind
		}

		that.write(c, payload)

		if delivery.Unbind {
			c.name = ""
		}
	}
}

// reply - sends a message produced by the edge itself.
func (that *Server) reply(c *client, msg protocol.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	that.write(c, payload)
}

func (that *Server) write(c *client, payload []byte) {
	if payload == nil {
		return
	}

	if !c.push(payload) {
		that.logger.Warn("send buffer is full, closing connection", "conn", c.id)
		c.close()
	}
}

func (that *Server) ref(c *client) entity.ConnRef {
	return entity.ConnRef{Edge: that.edgeID, Conn: c.id}
}

// Stats is what the ops endpoint reports about an edge.
type Stats struct {
	EdgeID      string `json:"edge_id"`
	Connections int    `json:"connections"`
	Registered  int    `json:"registered"`
}

func (that *Server) Stats() Stats {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	stats := Stats{EdgeID: that.edgeID, Connections: len(that.connections)}
	for _, c := range that.connections {
		if c.name != "" {
			stats.Registered++
		}
	}

	return stats
}

func ptr[T any](v T) *T {
	return &v
}
