package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

type envelope struct {
	routingKey string
	body       []byte
}

// LocalBus is the in-process stand-in for RabbitMQ when no broker is configured.
// Events go through the same JSON encoding as the broker path.
type LocalBus struct {
	queue  chan envelope
	done   chan struct{}
	logger *zap.Logger
}

func NewLocalBus(size int, logger *zap.Logger) *LocalBus {
	return &LocalBus{
		queue:  make(chan envelope, size),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (b *LocalBus) PublishRequestCreated(ctx context.Context, msg RequestCreatedMessage) error {
	return b.publish(ctx, RoutingKeyRequestCreated, msg)
}

func (b *LocalBus) PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error {
	return b.publish(ctx, RoutingKeyStatusUpdate, msg)
}

func (b *LocalBus) publish(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	select {
	case <-b.done:
		return ErrPublisherClosed
	default:
	}

	select {
	case b.queue <- envelope{routingKey: routingKey, body: body}:
		return nil
	case <-b.done:
		return ErrPublisherClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run hands queued events to handle until ctx is done. Handler errors are logged.
func (b *LocalBus) Run(ctx context.Context, handle Handler) error {
	defer close(b.done)

	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-b.queue:
			if err := handle(ctx, env.routingKey, env.body); err != nil {
				b.logger.Error("event dropped", zap.String("routing_key", env.routingKey), zap.Error(err))
			}
		}
	}
}
