package bus

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
)

const defaultMemoryBuffer = 256

type subscription struct {
	ch   chan protocol.Delivery
	done chan struct{}
}

// Memory is the in-process bus used when the coordinator and the edge share one binary.
type Memory struct {
	intents chan protocol.Intent
	buffer  int

	mu     sync.RWMutex
	edges  map[string]*subscription
	closed chan struct{}
	once   sync.Once
}

func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = defaultMemoryBuffer
	}

	return &Memory{
		intents: make(chan protocol.Intent, buffer),
		buffer:  buffer,
		edges:   make(map[string]*subscription),
		closed:  make(chan struct{}),
	}
}

func (that *Memory) PublishIntent(ctx context.Context, intent protocol.Intent) error {
	select {
	case <-that.closed:
		return ErrClosed
	default:
	}

	select {
	case that.intents <- intent:
		return nil
	case <-that.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (that *Memory) Intents(_ context.Context) (<-chan protocol.Intent, error) {
	return that.intents, nil
}

func (that *Memory) PublishDelivery(ctx context.Context, edgeID string, delivery protocol.Delivery) error {
	that.mu.RLock()
	sub, ok := that.edges[edgeID]
	that.mu.RUnlock()

	if !ok {
		return nil
	}

	select {
	case sub.ch <- delivery:
		return nil
	case <-sub.done:
		return nil
	case <-that.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Deliveries - subscribes an edge, the subscription ends with ctx.
func (that *Memory) Deliveries(ctx context.Context, edgeID string) (<-chan protocol.Delivery, error) {
	sub := &subscription{
		ch:   make(chan protocol.Delivery, that.buffer),
		done: make(chan struct{}),
	}

	that.mu.Lock()
	if previous, ok := that.edges[edgeID]; ok {
		close(previous.done)
	}
	that.edges[edgeID] = sub
	that.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-that.closed:
		}

		that.mu.Lock()
		if that.edges[edgeID] == sub {
			delete(that.edges, edgeID)
			close(sub.done)
		}
		that.mu.Unlock()
	}()

	return sub.ch, nil
}

func (that *Memory) Close() error {
	that.once.Do(func() {
		close(that.closed)
	})
	return nil
}
