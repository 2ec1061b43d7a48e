// Package coordinator owns the canonical session state: players, rooms, restart handshakes and live edges.
//
// Every intent, timer expiration and edge sweep is processed by one goroutine, so the state needs no locks.
// Events produced while processing are resolved to (edge, conn) only after processing finished.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
)

const (
	defaultOutboxSize = 1024
	expirationsBuffer = 64
	minSweepInterval  = time.Millisecond
)

var (
	ErrSourceClosed = errors.New("intent source closed")
	ErrStopped      = errors.New("coordinator is stopped")
)

type Source interface {
	Intents(ctx context.Context) (<-chan protocol.Intent, error)
}

type Sink interface {
	PublishDelivery(ctx context.Context, edgeID string, delivery protocol.Delivery) error
}

type Options struct {
	RestartTimeout time.Duration
	WaitTimeout    time.Duration
	EdgeTTL        time.Duration
	SweepInterval  time.Duration
	OutboxSize     int
}

// Outgoing is one delivery routed to one edge.
type Outgoing struct {
	Edge     string
	Delivery protocol.Delivery
}

type Coordinator struct {
	logger *slog.Logger
	source Source
	sink   Sink
	opts   Options

	now   func() time.Time
	newID func() string

	players map[string]*entity.Player
	byConn  map[entity.ConnRef]string
	rooms   map[string]*entity.Room
	edges   map[string]time.Time

	handlers map[string]func(intent protocol.Intent) error
	events   []event

	expirations chan expiration
	snapshots   chan chan Snapshot
	outbox      chan Outgoing
	done        chan struct{}
}

func New(logger *slog.Logger, source Source, sink Sink, opts Options) *Coordinator {
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = defaultOutboxSize
	}

	if opts.SweepInterval <= 0 {
		opts.SweepInterval = max(opts.EdgeTTL/2, minSweepInterval)
	}

	that := &Coordinator{
		logger: logger.With("component", "coordinator"),
		source: source,
		sink:   sink,
		opts:   opts,

		now:   time.Now,
		newID: pkg.NewRoomID,

		players: make(map[string]*entity.Player),
		byConn:  make(map[entity.ConnRef]string),
		rooms:   make(map[string]*entity.Room),
		edges:   make(map[string]time.Time),

		expirations: make(chan expiration, expirationsBuffer),
		snapshots:   make(chan chan Snapshot),
		outbox:      make(chan Outgoing, opts.OutboxSize),
		done:        make(chan struct{}),
	}

	that.handlers = map[string]func(intent protocol.Intent) error{
		protocol.TypeRegister:       that.handleRegister,
		protocol.TypeLogout:         that.handleLogout,
		protocol.TypeCreateRoom:     that.handleCreateRoom,
		protocol.TypeJoinRoom:       that.handleJoinRoom,
		protocol.TypeMove:           that.handleMove,
		protocol.TypeRestart:        that.handleRestart,
		protocol.TypeLeaveRoom:      that.handleLeaveRoom,
		protocol.TypeEdgeHeartbeat:  that.handleHeartbeat,
		protocol.TypeEdgeDisconnect: that.handleDisconnect,
	}

	return that
}

// Run - processes intents until ctx is done. It must be called once.
func (that *Coordinator) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	defer close(that.done)

	intents, err := that.source.Intents(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to intents: %w", err)
	}

	go that.send(ctx)

	var sweep <-chan time.Time
	if that.opts.EdgeTTL > 0 {
		ticker := time.NewTicker(that.opts.SweepInterval)
		defer ticker.Stop()
		sweep = ticker.C
	}

	log.Info("coordinator started")

	for {
		select {
		case <-ctx.Done():
			log.Info("coordinator stopped")
			return nil

		case intent, ok := <-intents:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrSourceClosed
			}
			that.enqueue(that.handle(intent))

		case exp := <-that.expirations:
			that.enqueue(that.handleExpiration(exp))

		case <-sweep:
			that.enqueue(that.sweepEdges())

		case reply := <-that.snapshots:
			reply <- that.snapshot()
		}
	}
}

// handle - processes one intent and returns the deliveries it produced, in emission order.
func (that *Coordinator) handle(intent protocol.Intent) []Outgoing {
	that.dispatch(intent)
	return that.flush()
}

func (that *Coordinator) dispatch(intent protocol.Intent) {
	log := that.logger.With("method", "dispatch", "type", intent.Type(), "edge", intent.From.Edge, "conn", intent.From.Conn)

	edgeID := intent.From.Edge
	if edgeID == "" {
		log.Warn("dropping intent without edge")
		return
	}

	if intent.Type() == protocol.TypeEdgeHello {
		that.helloEdge(edgeID)
		return
	}

	if !that.touchEdge(edgeID) {
		log.Warn("intent from unknown edge, resetting it")
		that.resetEdge(edgeID)
	}

	handler, ok := that.handlers[intent.Type()]
	if !ok {
		log.Warn("dropping intent of unknown type")
		return
	}

	if err := handler(intent); err != nil {
		log.Debug("intent rejected", "error", err)
		that.toConn(intent.From, protocol.ErrorEvent(err))
	}
}

func (that *Coordinator) enqueue(outs []Outgoing) {
	log := that.logger.With("method", "enqueue")

	for _, out := range outs {
		select {
		case that.outbox <- out:
		default:
			log.Warn("outbox is full, dropping delivery", "edge", out.Edge, "conn", out.Delivery.Conn)
		}
	}
}

func (that *Coordinator) send(ctx context.Context) {
	log := that.logger.With("method", "send")

	for {
		select {
		case <-ctx.Done():
			return
		case out := <-that.outbox:
			if err := that.sink.PublishDelivery(ctx, out.Edge, out.Delivery); err != nil {
				log.Error("failed to publish delivery", "edge", out.Edge, "error", err)
			}
		}
	}
}
