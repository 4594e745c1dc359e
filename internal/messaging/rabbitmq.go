package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	reconnectDelay = 5 * time.Second
	publishTimeout = 5 * time.Second
)

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	url     string
	logger  *zap.Logger
	mu      sync.RWMutex
	done    chan struct{}
	once    sync.Once
}

func NewRabbitMQ(url string, logger *zap.Logger) (*RabbitMQ, error) {
	rmq := &RabbitMQ{
		url:    url,
		logger: logger,
		done:   make(chan struct{}),
	}

	if err := rmq.connect(); err != nil {
		return nil, err
	}

	go rmq.handleReconnect()

	return rmq, nil
}

func (r *RabbitMQ) connect() error {
	var err error

	r.conn, err = amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}

	r.channel, err = r.conn.Channel()
	if err != nil {
		r.conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	err = r.channel.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = r.channel.QueueDeclare(
		QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	for _, key := range []string{RoutingKeyRequestCreated, RoutingKeyStatusUpdate} {
		if err := r.channel.QueueBind(QueueName, key, ExchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue with key %s: %w", key, err)
		}
	}

	r.logger.Info("rabbitmq connected", zap.String("exchange", ExchangeName), zap.String("queue", QueueName))
	return nil
}

func (r *RabbitMQ) handleReconnect() {
	for {
		r.mu.RLock()
		closed := r.conn.NotifyClose(make(chan *amqp.Error, 1))
		r.mu.RUnlock()

		select {
		case <-r.done:
			return
		case err := <-closed:
			if err != nil {
				r.logger.Warn("rabbitmq connection lost", zap.Error(err))
			}

			r.mu.Lock()
			for {
				select {
				case <-r.done:
					r.mu.Unlock()
					return
				default:
				}
				if err := r.connect(); err != nil {
					r.logger.Warn("rabbitmq reconnect failed", zap.Error(err), zap.Duration("retry_in", reconnectDelay))
					time.Sleep(reconnectDelay)
					continue
				}
				break
			}
			r.mu.Unlock()
		}
	}
}

func (r *RabbitMQ) publish(ctx context.Context, routingKey string, message interface{}) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.channel == nil {
		return fmt.Errorf("channel not available")
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = r.channel.PublishWithContext(
		ctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	r.logger.Debug("event published", zap.String("routing_key", routingKey))
	return nil
}

func (r *RabbitMQ) PublishRequestCreated(ctx context.Context, msg RequestCreatedMessage) error {
	return r.publish(ctx, RoutingKeyRequestCreated, msg)
}

func (r *RabbitMQ) PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error {
	return r.publish(ctx, RoutingKeyStatusUpdate, msg)
}

func (r *RabbitMQ) consume() (<-chan amqp.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.channel == nil {
		return nil, fmt.Errorf("channel not available")
	}

	msgs, err := r.channel.Consume(
		QueueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("register consumer: %w", err)
	}

	return msgs, nil
}

// Run consumes the queue, acking handled deliveries and dead-lettering the rest.
// It re-subscribes after a connection loss.
func (r *RabbitMQ) Run(ctx context.Context, handle Handler) error {
	for {
		msgs, err := r.consume()
		if err != nil {
			r.logger.Warn("consume failed", zap.Error(err), zap.Duration("retry_in", reconnectDelay))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(reconnectDelay):
				continue
			}
		}

		r.logger.Info("consumer listening", zap.String("queue", QueueName))
		if done := r.process(ctx, msgs, handle); done {
			return nil
		}
	}
}

func (r *RabbitMQ) process(ctx context.Context, msgs <-chan amqp.Delivery, handle Handler) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case msg, ok := <-msgs:
			if !ok {
				r.logger.Warn("delivery channel closed, resubscribing")
				return false
			}

			if err := handle(ctx, msg.RoutingKey, msg.Body); err != nil {
				r.logger.Error("event dropped", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
				msg.Nack(false, false)
				continue
			}
			msg.Ack(false)
		}
	}
}

func (r *RabbitMQ) Close() {
	r.once.Do(func() {
		close(r.done)

		r.mu.Lock()
		defer r.mu.Unlock()

		if r.channel != nil {
			r.channel.Close()
		}
		if r.conn != nil {
			r.conn.Close()
		}

		r.logger.Info("rabbitmq connection closed")
	})
}
