package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ksk-service/internal/model"
	"ksk-service/internal/repository"

	"github.com/avast/retry-go"
	"go.uber.org/zap"
)

const (
	maxRetryAttempts = 3
	initialDelay     = 200 * time.Millisecond
	maxDelay         = 5 * time.Second
)

// EventConsumer turns request events into live pushes and stored notifications.
type EventConsumer struct {
	notificationRepo *repository.NotificationRepository
	sseHub           *SSEHub
	logger           *zap.Logger
	delay            time.Duration
}

func NewEventConsumer(notificationRepo *repository.NotificationRepository, sseHub *SSEHub, logger *zap.Logger) *EventConsumer {
	return &EventConsumer{
		notificationRepo: notificationRepo,
		sseHub:           sseHub,
		logger:           logger,
		delay:            initialDelay,
	}
}

// Handle processes one event with retry and backoff. Malformed bodies and
// unknown routing keys fail immediately.
func (c *EventConsumer) Handle(ctx context.Context, routingKey string, body []byte) error {
	return retry.Do(
		func() error {
			return c.dispatch(ctx, routingKey, body)
		},
		retry.Context(ctx),
		retry.Attempts(maxRetryAttempts),
		retry.Delay(c.delay),
		retry.MaxDelay(maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("event retry", zap.String("routing_key", routingKey), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}

func (c *EventConsumer) dispatch(ctx context.Context, routingKey string, body []byte) error {
	switch routingKey {
	case RoutingKeyRequestCreated:
		return c.handleRequestCreated(body)
	case RoutingKeyStatusUpdate:
		return c.handleStatusUpdate(ctx, body)
	}
	return retry.Unrecoverable(fmt.Errorf("unknown routing key %q", routingKey))
}

func (c *EventConsumer) handleRequestCreated(body []byte) error {
	var msg RequestCreatedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return retry.Unrecoverable(fmt.Errorf("decode request created: %w", err))
	}

	c.sseHub.SendToDispatchers(msg.City, model.Event{Type: EventRequestCreated, Payload: msg})
	return nil
}

func (c *EventConsumer) handleStatusUpdate(ctx context.Context, body []byte) error {
	var msg StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return retry.Unrecoverable(fmt.Errorf("decode status update: %w", err))
	}

	// Seeded requests without an author carry the placeholder identifier.
	var notification *model.Notification
	if msg.Identifier != "" && msg.Identifier != model.PlaceholderIdentifier {
		var err error
		notification, err = c.notificationRepo.CreateStatusNotification(
			ctx,
			msg.Identifier,
			msg.RequestID,
			msg.Title,
			model.RequestStatus(msg.NewStatus),
		)
		if err != nil {
			return fmt.Errorf("store notification: %w", err)
		}
	}

	c.sseHub.SendToDispatchers(msg.City, model.Event{Type: EventStatusUpdate, Payload: msg})
	if notification != nil {
		c.sseHub.SendToIdentifier(msg.Identifier, model.Event{Type: EventNotification, Payload: notification})
	}
	return nil
}
