package relay

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/salon-token-service/internal/events"
)

const channelPrefix = "salon:queue:"

// RedisRelay fans queue-change events out to subscribed viewers through
// Redis pub/sub, one channel per queue category. Delivery is best effort:
// a failed publish is logged and never fails the business operation.
type RedisRelay struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisRelay creates the relay.
func NewRedisRelay(client *redis.Client, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{client: client, logger: logger}
}

// Register subscribes the relay to all queue events.
func (r *RedisRelay) Register(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTokenIssued, r.handle)
	dispatcher.Subscribe(events.EventTokenServing, r.handle)
	dispatcher.Subscribe(events.EventTokenServed, r.handle)
}

// Channel returns the pub/sub channel for a queue category.
func Channel(queue string) string {
	return channelPrefix + queue
}

func (r *RedisRelay) handle(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("marshal relay event", zap.Error(err))
		return nil
	}
	if r.client == nil {
		return nil
	}
	if err := r.client.Publish(ctx, Channel(event.Queue), payload).Err(); err != nil {
		r.logger.Warn("publish relay event",
			zap.String("queue", event.Queue),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return nil
	}
	r.logger.Debug("relay event published",
		zap.String("queue", event.Queue),
		zap.String("token_id", event.TokenID),
		zap.String("event_type", string(event.Type)))
	return nil
}
