package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
)

const (
	defaultPrefix    = "ttt"
	intentsBuffer    = 64
	popTimeout       = time.Second
	popRetryInterval = time.Second
)

// NewRedisClient - connects to redis and checks the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if _, err := conn.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return conn, nil
}

// Redis keeps intents in a list consumed with BLPOP and sends deliveries over one pub/sub channel per edge.
type Redis struct {
	logger *slog.Logger
	client *redis.Client
	prefix string
}

func NewRedis(logger *slog.Logger, client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &Redis{
		logger: logger.With("component", "redis-bus"),
		client: client,
		prefix: prefix,
	}
}

func (that *Redis) intentsKey() string {
	return that.prefix + ":intents"
}

func (that *Redis) edgeChannel(edgeID string) string {
	return that.prefix + ":edge:" + edgeID
}

func (that *Redis) PublishIntent(ctx context.Context, intent protocol.Intent) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal intent: %w", err)
	}

	if err = that.client.RPush(ctx, that.intentsKey(), payload).Err(); err != nil {
		return fmt.Errorf("failed to push intent: %w", err)
	}

	return nil
}

// Intents - pops intents until ctx is done, the channel is closed afterwards.
func (that *Redis) Intents(ctx context.Context) (<-chan protocol.Intent, error) {
	out := make(chan protocol.Intent, intentsBuffer)

	go func() {
		defer close(out)

		log := that.logger.With("method", "Intents")

		for {
			values, err := that.client.BLPop(ctx, popTimeout, that.intentsKey()).Result()
			if ctx.Err() != nil {
				return
			}

			if errors.Is(err, redis.Nil) {
				continue
			}

			if err != nil {
				log.Error("failed to pop intent", "error", err)

				select {
				case <-ctx.Done():
					return
				case <-time.After(popRetryInterval):
				}
				continue
			}

			// BLPOP replies with the key followed by the value.
			if len(values) != 2 {
				continue
			}

			var intent protocol.Intent
			if err = json.Unmarshal([]byte(values[1]), &intent); err != nil {
				log.Warn("dropping malformed intent", "error", err)
				continue
			}

			select {
			case out <- intent:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (that *Redis) PublishDelivery(ctx context.Context, edgeID string, delivery protocol.Delivery) error {
	payload, err := json.Marshal(delivery)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery: %w", err)
	}

	if err = that.client.Publish(ctx, that.edgeChannel(edgeID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish delivery: %w", err)
	}

	return nil
}

// Deliveries - subscribes to the channel of one edge. The subscription is confirmed before returning,
// so nothing published after the call is missed. The channel is closed when the subscription ends.
func (that *Redis) Deliveries(ctx context.Context, edgeID string) (<-chan protocol.Delivery, error) {
	sub := that.client.Subscribe(ctx, that.edgeChannel(edgeID))

	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to edge channel: %w", err)
	}

	out := make(chan protocol.Delivery, intentsBuffer)

	go func() {
		defer close(out)
		defer sub.Close()

		log := that.logger.With("method", "Deliveries", "edge", edgeID)
		messages := sub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var delivery protocol.Delivery
				if err := json.Unmarshal([]byte(msg.Payload), &delivery); err != nil {
					log.Warn("dropping malformed delivery", "error", err)
					continue
				}

				select {
				case out <- delivery:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (that *Redis) Close() error {
	if err := that.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}
