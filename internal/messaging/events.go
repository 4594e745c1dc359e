package messaging

import (
	"context"
	"errors"
)

const (
	ExchangeName = "ksk.requests"
	QueueName    = "ksk.request.events"

	RoutingKeyRequestCreated = "request.created"
	RoutingKeyStatusUpdate   = "request.status.updated"
)

// Event types pushed to live clients.
const (
	EventRequestCreated = "request_created"
	EventStatusUpdate   = "status_update"
	EventNotification   = "notification"
)

var ErrPublisherClosed = errors.New("publisher closed")

type RequestCreatedMessage struct {
	RequestID  string `json:"request_id"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	City       string `json:"city"`
	Identifier string `json:"identifier"`
	Timestamp  int64  `json:"timestamp"`
}

type StatusUpdateMessage struct {
	RequestID  string `json:"request_id"`
	Title      string `json:"title"`
	City       string `json:"city"`
	Identifier string `json:"identifier"`
	OldStatus  string `json:"old_status"`
	NewStatus  string `json:"new_status"`
	Timestamp  int64  `json:"timestamp"`
}

// Publisher announces request store mutations.
type Publisher interface {
	PublishRequestCreated(ctx context.Context, msg RequestCreatedMessage) error
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

// Handler processes one event body delivered under routingKey.
type Handler func(ctx context.Context, routingKey string, body []byte) error

// Source delivers published events to a handler until ctx is done.
type Source interface {
	Run(ctx context.Context, handle Handler) error
}
