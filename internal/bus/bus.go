// Package bus carries intents from edges to the coordinator and deliveries back to one edge.
//
// Intents form a single FIFO queue with exactly one consumer, the coordinator.
// Deliveries are fire-and-forget: a delivery for an edge nobody listens to is lost.
package bus

import (
	"context"
	"errors"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
)

var ErrClosed = errors.New("bus is closed")

type Bus interface {
	PublishIntent(ctx context.Context, intent protocol.Intent) error
	Intents(ctx context.Context) (<-chan protocol.Intent, error)

	PublishDelivery(ctx context.Context, edgeID string, delivery protocol.Delivery) error
	Deliveries(ctx context.Context, edgeID string) (<-chan protocol.Delivery, error)

	Close() error
}
